package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

// errorStatus maps a service error to an HTTP status and a stable code.
func errorStatus(err error) (int, dto.ErrorResponse) {
	resp := dto.ErrorResponse{Success: false, Message: err.Error()}

	var (
		stale     *apperrors.SelectionStaleError
		exceeds   *apperrors.SelectionExceedsPoolError
		partition *apperrors.PartitionError
		missing   *apperrors.AccountMissingError
		stepErr   *apperrors.StepError
		appErr    *apperrors.AppError
	)
	switch {
	case errors.As(err, &stepErr):
		resp.Code = "STEP_WRITE_FAILED"
		resp.Severity = string(stepErr.Severity)
		resp.Message = stepErr.Message
		resp.Details = gin.H{"step": stepErr.Step, "rolledBack": stepErr.RolledBack}
		if stepErr.Severity == apperrors.SeverityPartial {
			resp.Code = "PARTIAL_SUCCESS"
		}
		return http.StatusInternalServerError, resp
	case errors.As(err, &stale):
		resp.Code = "SELECTION_STALE"
		resp.Details = gin.H{"problems": stale.Problems}
		return http.StatusConflict, resp
	case errors.As(err, &exceeds):
		resp.Code = "SELECTION_EXCEEDS_POOL"
		resp.Details = gin.H{"selected": exceeds.Selected.StringFixed(2), "available": exceeds.Available.StringFixed(2)}
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &partition):
		resp.Code = "PARTITION_INCOMPLETE"
		resp.Details = gin.H{"scope": partition.Scope, "total": partition.Total.String(), "deviation": partition.Deviation.String()}
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &missing):
		resp.Code = "ACCOUNT_MISSING"
		resp.Details = gin.H{"currency": missing.Currency, "employeeIDs": missing.EmployeeIDs, "companyKinds": missing.CompanyKinds}
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, apperrors.ErrSelectionExceedsPool):
		resp.Code = "SELECTION_EXCEEDS_POOL"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, apperrors.ErrDistributionInProgress):
		resp.Code = "DISTRIBUTION_IN_PROGRESS"
		return http.StatusConflict, resp
	case errors.Is(err, apperrors.ErrRunAlreadyAttempted):
		resp.Code = "RUN_ALREADY_ATTEMPTED"
		return http.StatusConflict, resp
	case errors.Is(err, apperrors.ErrDuplicate):
		resp.Code = "DUPLICATE"
		return http.StatusConflict, resp
	case errors.Is(err, apperrors.ErrValidation):
		resp.Code = "VALIDATION_ERROR"
		return http.StatusBadRequest, resp
	case errors.Is(err, apperrors.ErrNotFound):
		resp.Code = "NOT_FOUND"
		return http.StatusNotFound, resp
	case errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 600:
		resp.Code = "INTERNAL_ERROR"
		resp.Message = appErr.Message
		return appErr.Code, resp
	}
	resp.Code = "INTERNAL_ERROR"
	resp.Message = "internal server error"
	return http.StatusInternalServerError, resp
}

// respondError logs err at a level matching its status and writes the error envelope.
func respondError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status, resp := errorStatus(err)
	switch {
	case resp.Severity == string(apperrors.SeverityPartial):
		logger.Error(msg+": partial writes kept", slog.String("error", err.Error()))
	case status >= http.StatusInternalServerError:
		logger.Error(msg, slog.String("error", err.Error()))
	default:
		logger.Warn(msg, slog.String("error", err.Error()), slog.Int("status", status))
	}
	c.JSON(status, resp)
}

// respondBindError reports a malformed or invalid request body.
func respondBindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Success: false,
		Code:    "INVALID_REQUEST",
		Message: "Invalid request format: " + err.Error(),
	})
}

func respondUnauthorized(c *gin.Context, logger *slog.Logger) {
	logger.Error("User ID not found in context")
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Success: false, Code: "UNAUTHORIZED", Message: "Unauthorized"})
}
