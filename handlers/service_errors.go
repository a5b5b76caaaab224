package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/staff-portal/services"
	"github.com/upb/staff-portal/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error("unhandled error type", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
		return
	}

	var writeErr error
	switch domainErr.Type {
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, domainErr.Message)

	case services.ErrorTypeValidation:
		writeErr = utils.WriteBadRequest(w, domainErr.Message, domainErr.Details)

	case services.ErrorTypeUnauthorized:
		writeErr = utils.WriteUnauthorized(w, domainErr.Message)

	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w, domainErr.Message)

	case services.ErrorTypeConflict:
		writeErr = utils.WriteConflict(w, domainErr.Message, domainErr.Details)

	default:
		// internal details stay in the log
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}

	logger.Debug("handled service error",
		zap.String("type", string(domainErr.Type)),
		zap.String("message", domainErr.Message),
		zap.Any("details", domainErr.Details))
}

// HandleDecodeError responds to a request body that could not be decoded
func HandleDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		details := make(map[string]interface{})
		for k, v := range utils.GetValidationFields(err) {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write bad request response", zap.Error(err))
	}
}
