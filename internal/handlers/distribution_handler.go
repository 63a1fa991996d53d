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

// idempotencyHeader lets clients pin the run identity outside the body.
const idempotencyHeader = "Idempotency-Key"

// distributionHandler handles HTTP requests for percentage distributions.
type distributionHandler struct {
	distributionService portssvc.DistributionSvcFacade
	posthogClient       *utils.PosthogClientWrapper
}

func newDistributionHandler(ds portssvc.DistributionSvcFacade, posthogClient *utils.PosthogClientWrapper) *distributionHandler {
	return &distributionHandler{distributionService: ds, posthogClient: posthogClient}
}

// RegisterDistributionRoutes registers percentage distribution routes under a project group.
func RegisterDistributionRoutes(projects *gin.RouterGroup, ds portssvc.DistributionSvcFacade, posthogClient *utils.PosthogClientWrapper) {
	h := newDistributionHandler(ds, posthogClient)

	projects.GET("/percentage-logs", h.listUndistributedLogs)
	distributions := projects.Group("/distributions")
	{
		distributions.POST("/selection", h.selectLogs)
		distributions.POST("/preview", h.previewShares)
		distributions.POST("", h.commitDistribution)
	}
}

// listUndistributedLogs godoc
// @Summary List undistributed percentage logs
// @Description Lists the project's logs in a currency that have not been distributed yet, oldest first
// @Tags distributions
// @Produce json
// @Param projectID path string true "Project ID"
// @Param currency query string true "Currency code"
// @Success 200 {object} dto.SuccessResponse{data=[]domain.PercentageLog}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectID}/percentage-logs [get]
func (h *distributionHandler) listUndistributedLogs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListLogsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}
	projectID := c.Param("projectID")

	logs, err := h.distributionService.ListUndistributedLogs(c.Request.Context(), projectID, params.Currency)
	if err != nil {
		respondError(c, logger, "Failed to list undistributed logs", err)
		return
	}
	if logs == nil {
		logs = []domain.PercentageLog{}
	}
	c.JSON(http.StatusOK, dto.OK(logs))
}

// selectLogs godoc
// @Summary Validate a log selection
// @Description Re-reads the selected logs and pools and returns the proportional cash/bank split. Nothing is written.
// @Tags distributions
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param selection body dto.SelectionRequest true "Logs to select"
// @Success 200 {object} dto.SuccessResponse{data=domain.Selection}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Selection is stale"
// @Failure 422 {object} dto.ErrorResponse "Selection exceeds the pools"
// @Security BearerAuth
// @Router /projects/{projectID}/distributions/selection [post]
func (h *distributionHandler) selectLogs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	projectID := c.Param("projectID")

	selection, err := h.distributionService.SelectLogs(c.Request.Context(), projectID, req.Currency, req.LogIDs)
	if err != nil {
		respondError(c, logger, "Failed to select logs", err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(selection))
}

// previewShares godoc
// @Summary Preview participant shares
// @Description Computes every participant's share of an explicit pool or of a log selection. Nothing is written.
// @Tags distributions
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param preview body dto.PreviewRequest true "Pool or selection, and the shares"
// @Success 200 {object} dto.SuccessResponse{data=domain.ShareSet}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse "Percentages do not sum to 100"
// @Security BearerAuth
// @Router /projects/{projectID}/distributions/preview [post]
func (h *distributionHandler) previewShares(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	var pool domain.PoolAmounts
	switch {
	case req.Selection != nil:
		selection, err := h.distributionService.SelectLogs(c.Request.Context(), c.Param("projectID"), req.Selection.Currency, req.Selection.LogIDs)
		if err != nil {
			respondError(c, logger, "Failed to select logs for preview", err)
			return
		}
		pool = selection.Amounts()
	case req.Pool != nil:
		pool = domain.PoolAmounts{Cash: req.Pool.Cash, Bank: req.Pool.Bank}
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Code: "INVALID_REQUEST", Message: "either pool or selection is required"})
		return
	}

	shares, err := h.distributionService.ComputeShares(c.Request.Context(), pool, dto.ToShareInputs(req.Employees), req.Company.ToDomain())
	if err != nil {
		respondError(c, logger, "Failed to compute shares", err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(shares))
}

// commitDistribution godoc
// @Summary Commit a percentage distribution
// @Description Selects the logs, computes shares and writes periods, line items, records, account and pool updates.
// @Description A retry with the Idempotency-Key of a successful run returns the stored result without writing.
// @Tags distributions
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param Idempotency-Key header string false "Run idempotency key"
// @Param distribution body dto.CommitDistributionRequest true "Selection and shares"
// @Success 201 {object} dto.SuccessResponse{data=dto.DistributionResponse}
// @Success 200 {object} dto.SuccessResponse{data=dto.DistributionResponse} "Replayed"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Stale selection, run in progress or already attempted"
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse "Step failed; severity PARTIAL means manual reconciliation"
// @Security BearerAuth
// @Router /projects/{projectID}/distributions [post]
func (h *distributionHandler) commitDistribution(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CommitDistributionRequest
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
	logger = logger.With(slog.String("project_id", projectID), slog.Int("log_count", len(req.LogIDs)))
	ctx := middleware.WithLogger(c.Request.Context(), logger)

	opts := req.CommitOptions(c.GetHeader(idempotencyHeader))

	// answered before selection: a successful run has marked its logs distributed
	if opts.IdempotencyKey != "" {
		replayed, err := h.distributionService.ReplayRun(ctx, projectID, opts.IdempotencyKey)
		if err != nil {
			respondError(c, logger, "Failed to look up idempotency key", err)
			return
		}
		if replayed != nil {
			logger.Info("Distribution replayed", slog.String("run_id", replayed.RunID))
			c.JSON(http.StatusOK, dto.OK(dto.ToDistributionResponse(replayed)))
			return
		}
	}

	selection, err := h.distributionService.SelectLogs(ctx, projectID, req.Currency, req.LogIDs)
	if err != nil {
		respondError(c, logger, "Failed to select logs", err)
		return
	}
	shares, err := h.distributionService.ComputeShares(ctx, selection.Amounts(), dto.ToShareInputs(req.Employees), req.Company.ToDomain())
	if err != nil {
		respondError(c, logger, "Failed to compute shares", err)
		return
	}

	result, err := h.distributionService.Commit(ctx, projectID, *selection, *shares, domain.Actor{ID: userID}, opts)
	if err != nil {
		respondError(c, logger, "Failed to commit distribution", err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	} else {
		middleware.PosthogEvent(c, h.posthogClient, "distribution_committed", map[string]any{
			"project_id": projectID,
			"run_id":     result.RunID,
			"currency":   result.Currency,
			"total":      selection.SelectedTotal.StringFixed(2),
			"employees":  len(req.Employees),
		})
	}
	logger.Info("Distribution committed", slog.String("run_id", result.RunID), slog.Bool("replayed", result.Replayed))
	c.JSON(status, dto.OK(dto.ToDistributionResponse(result)))
}
