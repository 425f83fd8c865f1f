package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"taskFlow/internal/models/audit"
	"taskFlow/internal/models/user"
	"taskFlow/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func (r *AuditRepo) Create(ctx context.Context, entry *audit.Log) error {
	start := time.Now()
	defer observe(start, "audit.create")

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `INSERT INTO audit_logs
				(id, user_id, action, resource, resource_id, details, ip_address, user_agent, status_code, timestamp)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
		entry.StatusCode,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("запись аудита: %w", err)
	}
	return nil
}

// List возвращает записи от новых к старым вместе с автором, если он ещё существует.
func (r *AuditRepo) List(ctx context.Context, filter repository.AuditFilter, page repository.Page) ([]*repository.LogWithActor, int, error) {
	start := time.Now()
	defer observe(start, "audit.list")

	b := &whereBuilder{}
	if filter.UserID != nil {
		b.add("a.user_id = $%d", *filter.UserID)
	}
	if filter.Action != "" {
		b.add("a.action = $%d", filter.Action)
	}
	if filter.Resource != "" {
		b.add("a.resource = $%d", filter.Resource)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs a`+b.sql(), slices.Clone(b.args)...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт записей аудита: %w", err)
	}

	query := `SELECT a.id, a.user_id, a.action, a.resource, a.resource_id, a.details,
				a.ip_address, a.user_agent, a.status_code, a.timestamp,
				u.id, u.name, u.email
			FROM audit_logs a
			LEFT JOIN users u ON u.id = a.user_id` +
		b.sql() + ` ORDER BY a.timestamp DESC, a.id` + b.limitOffset(page)

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("получение записей аудита: %w", err)
	}
	defer rows.Close()

	res := []*repository.LogWithActor{}
	for rows.Next() {
		entry := &audit.Log{}
		var actorID *uuid.UUID
		var actorName, actorEmail *string

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.Resource,
			&entry.ResourceID,
			&entry.Details,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.StatusCode,
			&entry.Timestamp,
			&actorID,
			&actorName,
			&actorEmail,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("сканирование записи аудита: %w", err)
		}

		item := &repository.LogWithActor{Log: entry}
		if actorID != nil {
			item.User = &user.Summary{ID: *actorID, Name: deref(actorName), Email: deref(actorEmail)}
		}
		res = append(res, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}
	return res, total, nil
}
