package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/construction_ledger/internal/utils"
	"github.com/gin-gonic/gin"
)

const projectRoutes = "/api/v1/projects/:projectID"

// routeEvents names the analytics event for each tracked project route.
// Commits are absent: their handlers send a richer event themselves.
var routeEvents = map[string]string{
	"GET /percentage-logs":          "undistributed_logs_listed",
	"POST /distributions/selection": "selection_checked",
	"POST /distributions/preview":   "distribution_previewed",
	"GET /periods":                  "periods_listed",
	"GET /periods/:periodID":        "period_viewed",
	"GET /periods/:periodID/export": "period_exported",
}

// PosthogMiddleware reports successful project requests to PostHog.
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if posthogClient == nil || !posthogClient.IsInitialized() {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		route, ok := strings.CutPrefix(c.FullPath(), projectRoutes)
		if !ok {
			return
		}
		eventName, tracked := routeEvents[c.Request.Method+" "+route]
		if !tracked {
			return
		}
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}

		props := projectProps(c)
		props["status_code"] = c.Writer.Status()
		if periodID := c.Param("periodID"); periodID != "" {
			props["period_id"] = periodID
		}
		posthogClient.Enqueue(userID, eventName, props)
	}
}

// PosthogEvent sends a custom event from a handler, tagged with the project and route.
func PosthogEvent(c *gin.Context, posthogClient *utils.PosthogClientWrapper, eventName string, properties map[string]any) {
	if posthogClient == nil || !posthogClient.IsInitialized() {
		return
	}
	userID, exists := GetUserIDFromContext(c)
	if !exists {
		return
	}

	props := projectProps(c)
	for k, v := range properties {
		props[k] = v
	}
	posthogClient.Enqueue(userID, eventName, props)
}

func projectProps(c *gin.Context) map[string]any {
	return map[string]any{
		"project_id": c.Param("projectID"),
		"method":     c.Request.Method,
		"route":      c.FullPath(),
	}
}
