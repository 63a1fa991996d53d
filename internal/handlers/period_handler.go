package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/dto"
	"github.com/SscSPs/construction_ledger/internal/middleware"
	"github.com/SscSPs/construction_ledger/internal/utils/export"
	"github.com/gin-gonic/gin"
)

type periodHandler struct {
	periodService portssvc.PeriodSvc
}

// RegisterPeriodRoutes registers period history routes under a project group.
func RegisterPeriodRoutes(projects *gin.RouterGroup, ps portssvc.PeriodSvc) {
	h := &periodHandler{periodService: ps}

	periods := projects.Group("/periods")
	{
		periods.GET("", h.listPeriods)
		periods.GET("/:periodID", h.getPeriod)
		periods.GET("/:periodID/export", h.exportPeriod)
	}
}

// listPeriods godoc
// @Summary List distribution periods
// @Description Lists a project's periods newest first with token pagination
// @Tags periods
// @Produce json
// @Param projectID path string true "Project ID"
// @Param limit query int false "Page size (max 100)"
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.SuccessResponse{data=dto.ListPeriodsResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectID}/periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListPeriodsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	page, err := h.periodService.ListPeriods(c.Request.Context(), c.Param("projectID"), params.Limit, params.NextToken)
	if err != nil {
		respondError(c, logger, "Failed to list periods", err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToListPeriodsResponse(page)))
}

// getPeriod godoc
// @Summary Get a distribution period
// @Tags periods
// @Produce json
// @Param projectID path string true "Project ID"
// @Param periodID path string true "Period ID"
// @Success 200 {object} dto.SuccessResponse{data=dto.PeriodResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectID}/periods/{periodID} [get]
func (h *periodHandler) getPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	period, items, err := h.periodService.GetPeriod(c.Request.Context(), c.Param("projectID"), c.Param("periodID"))
	if err != nil {
		respondError(c, logger, "Failed to get period", err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.PeriodResponse{Period: *period, LineItems: items}))
}

// exportPeriod godoc
// @Summary Export a period as a spreadsheet
// @Tags periods
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param projectID path string true "Project ID"
// @Param periodID path string true "Period ID"
// @Success 200 {file} file
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectID}/periods/{periodID}/export [get]
func (h *periodHandler) exportPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	period, items, err := h.periodService.GetPeriod(c.Request.Context(), c.Param("projectID"), c.Param("periodID"))
	if err != nil {
		respondError(c, logger, "Failed to load period for export", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePeriodXLSX(&buf, *period, items); err != nil {
		logger.Error("Failed to render period workbook", slog.String("period_id", period.PeriodID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Success: false, Code: "EXPORT_FAILED", Message: "Failed to export period"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.PeriodFileName(*period)+`"`)
	c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
}
