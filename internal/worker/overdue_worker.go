package worker

import (
	"context"
	"fmt"
	"time"

	"taskFlow/internal/logger"
	"taskFlow/internal/telemetry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultInterval = 5 * time.Minute

// OverdueMarker - массовый перевод pending -> overdue. userID == nil означает всех пользователей.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, userID *uuid.UUID, now time.Time) (int64, error)
}

// OverdueWorker периодически переводит просроченные задачи всех пользователей в overdue.
// Ленивый пересчёт в запросах работает независимо от него.
type OverdueWorker struct {
	repo     OverdueMarker
	interval time.Duration
	now      func() time.Time
}

func NewOverdueWorker(repo OverdueMarker, interval time.Duration) *OverdueWorker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &OverdueWorker{
		repo:     repo,
		interval: interval,
		now:      time.Now,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка задач запущена", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: ошибка проверки задач", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

func (w *OverdueWorker) Check(ctx context.Context) (int64, error) {
	start := time.Now()

	updated, err := w.repo.MarkOverdue(ctx, nil, w.now())
	if err != nil {
		return 0, fmt.Errorf("обновление просроченных задач: %w", err)
	}
	if updated > 0 {
		telemetry.OverdueTransitionsTotal.Add(float64(updated))
	}

	logger.Info(
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int64("overdue", updated),
	)
	return updated, nil
}
