package service

import (
	"context"
	"time"
)

const (
	HealthOK       = "OK"
	HealthDegraded = "DEGRADED"
)

type HealthReport struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (r *HealthReport) Healthy() bool {
	return r.Status == HealthOK
}

type HealthService struct {
	db             HealthChecker
	mailConfigured bool
	clock          Clock
}

func NewHealthService(db HealthChecker, mailConfigured bool, clock Clock) *HealthService {
	return &HealthService{db: db, mailConfigured: mailConfigured, clock: clock}
}

func (s *HealthService) Check(ctx context.Context) *HealthReport {
	report := &HealthReport{
		Status:    HealthOK,
		Timestamp: s.clock.now(),
		Services: map[string]string{
			"database": "connected",
			"email":    "configured",
		},
	}

	if !s.mailConfigured {
		report.Services["email"] = "not-configured"
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.db.HealthCheck(ctx); err != nil {
		report.Status = HealthDegraded
		report.Services["database"] = "disconnected"
	}
	return report
}
