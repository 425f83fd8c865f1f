package service

import (
	"context"
	"fmt"

	"taskFlow/internal/models/audit"
	"taskFlow/internal/telemetry"
)

// AuditService записывает записи журнала аудита.
type AuditService struct {
	repo  AuditRepository
	clock Clock
}

func NewAuditService(repo AuditRepository, clock Clock) *AuditService {
	return &AuditService{repo: repo, clock: clock}
}

func (s *AuditService) Record(ctx context.Context, entry *audit.Log) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.now()
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		telemetry.AuditEntriesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("запись аудита: %w", err)
	}
	telemetry.AuditEntriesTotal.WithLabelValues("recorded").Inc()
	return nil
}
