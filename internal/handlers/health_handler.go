package handlers

import (
	"net/http"

	"taskFlow/internal/logger"

	"go.uber.org/zap"
)

type HealthHandler struct {
	HealthService HealthService
}

func NewHealthHandler(healthService HealthService) *HealthHandler {
	return &HealthHandler{HealthService: healthService}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	report := h.HealthService.Check(r.Context())

	code := http.StatusOK
	if !report.Healthy() {
		code = http.StatusServiceUnavailable
		logger.Warn("HTTP: Health check не пройден", zap.Any("services", report.Services))
	}

	responseWithJSON(w, code,
		toPayload("status", report.Status),
		toPayload("timestamp", report.Timestamp),
		toPayload("services", report.Services))
}
