package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/dto"
	"github.com/SscSPs/construction_ledger/internal/middleware"
	"github.com/SscSPs/construction_ledger/internal/utils"
	"github.com/gin-gonic/gin"
)

type mapsHandler struct {
	mapsService   portssvc.MapsDistributionSvc
	posthogClient *utils.PosthogClientWrapper
}

// RegisterMapsRoutes registers the maps distribution route under a project group.
func RegisterMapsRoutes(projects *gin.RouterGroup, ms portssvc.MapsDistributionSvc, posthogClient *utils.PosthogClientWrapper) {
	h := &mapsHandler{mapsService: ms, posthogClient: posthogClient}
	projects.POST("/maps-distributions", h.commitMaps)
}

// commitMaps godoc
// @Summary Commit a maps distribution
// @Description Books one expense for all map items and pays every participant through a single method.
// @Tags maps
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param Idempotency-Key header string false "Run idempotency key"
// @Param maps body dto.CommitMapsRequest true "Map items"
// @Success 201 {object} dto.SuccessResponse{data=domain.MapsResult}
// @Success 200 {object} dto.SuccessResponse{data=domain.MapsResult} "Replayed"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectID}/maps-distributions [post]
func (h *mapsHandler) commitMaps(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CommitMapsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondUnauthorized(c, logger)
		return
	}
	projectID := c.Param("projectID")
	logger = logger.With(slog.String("project_id", projectID), slog.Int("item_count", len(req.Items)))
	ctx := middleware.WithLogger(c.Request.Context(), logger)

	result, err := h.mapsService.CommitMaps(ctx, projectID, req.Currency, req.ToMapItems(), req.Method, domain.Actor{ID: userID}, req.CommitOptions(c.GetHeader(idempotencyHeader)))
	if err != nil {
		respondError(c, logger, "Failed to commit maps distribution", err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	} else {
		middleware.PosthogEvent(c, h.posthogClient, "maps_distribution_committed", map[string]any{
			"project_id": projectID,
			"run_id":     result.RunID,
			"method":     string(req.Method),
			"total":      result.Distribution.TotalAmount.StringFixed(2),
		})
	}
	logger.Info("Maps distribution committed", slog.String("run_id", result.RunID), slog.Bool("replayed", result.Replayed))
	c.JSON(status, dto.OK(result))
}
