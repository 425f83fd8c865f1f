package handlers

import (
	"errors"
	"net/http"

	"taskFlow/internal/logger"
	"taskFlow/internal/middleware"
	"taskFlow/internal/service"

	"go.uber.org/zap"
)

const msgServerError = "Server error"

// handleError отдаёт бизнес-ошибку с её сообщением, остальные ошибки - как 500 без деталей.
func handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", operation),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("operation", operation),
		zap.String("error_code", businessErr.Code),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Int("http_status", statusCode))

	payload := []Payload{
		toPayload("success", false),
		toPayload("message", businessErr.Message),
	}
	if len(businessErr.Fields) > 0 {
		payload = append(payload, toPayload("errors", businessErr.Fields))
	}
	responseWithJSON(w, statusCode, payload...)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeDuplicateEmail, service.CodeSelfModification:
		return http.StatusBadRequest
	case service.CodeUnauthorized:
		return http.StatusUnauthorized
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
