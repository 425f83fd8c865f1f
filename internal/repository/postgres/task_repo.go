package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"taskFlow/internal/logger"
	"taskFlow/internal/models/task"
	"taskFlow/internal/models/user"
	"taskFlow/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const taskColumns = `t.id, t.user_id, t.title, t.description, t.category, t.due_date,
	t.status, t.priority, t.completed_at, t.tags, t.attachments, t.created_at, t.updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func taskScanTargets(t *task.Task) []any {
	return []any{
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.DueDate,
		&t.Status,
		&t.Priority,
		&t.CompletedAt,
		&t.Tags,
		&t.Attachments,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
}

func normalizeCollections(t *task.Task) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Attachments == nil {
		t.Attachments = []task.Attachment{}
	}
}

func (r *TaskRepo) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer observe(start, "task.create")

	if taskToCreate.ID == uuid.Nil {
		taskToCreate.ID = uuid.New()
	}
	normalizeCollections(taskToCreate)

	query := `INSERT INTO tasks
				(id, user_id, title, description, category, due_date, status, priority, completed_at, tags, attachments)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.UserID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Category,
		taskToCreate.DueDate,
		taskToCreate.Status,
		taskToCreate.Priority,
		taskToCreate.CompletedAt,
		taskToCreate.Tags,
		taskToCreate.Attachments,
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.UpdatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", mapError(err))
	}
	return nil
}

func (r *TaskRepo) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer observe(start, "task.update")

	normalizeCollections(taskToUpdate)

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				category = $3,
				due_date = $4,
				status = $5,
				priority = $6,
				completed_at = $7,
				tags = $8,
				attachments = $9,
				updated_at = NOW()
			WHERE id = $10
			RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Category,
		taskToUpdate.DueDate,
		taskToUpdate.Status,
		taskToUpdate.Priority,
		taskToUpdate.CompletedAt,
		taskToUpdate.Tags,
		taskToUpdate.Attachments,
		taskToUpdate.ID,
	).Scan(&taskToUpdate.UpdatedAt)
	if err != nil {
		err = mapError(err)
		logger.Warn("Repository: Не удалось обновить задачу",
			zap.String("task_id", taskToUpdate.ID.String()), zap.Error(err))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer observe(start, "task.get")

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

	t := &task.Task{}
	if err := r.pool.QueryRow(ctx, query, id).Scan(taskScanTargets(t)...); err != nil {
		return nil, fmt.Errorf("получение задачи: %w", mapError(err))
	}
	return t, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer observe(start, "task.delete")

	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func taskWhere(filter repository.TaskFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.UserID != nil {
		b.add("t.user_id = $%d", *filter.UserID)
	}
	if filter.Status != "" {
		b.add("t.status = $%d", filter.Status)
	}
	if filter.Category != "" {
		b.add("t.category = $%d", filter.Category)
	}
	return b
}

func taskOrderBy(filter repository.TaskFilter) string {
	column, ok := repository.TaskSortFields[filter.SortBy]
	if !ok {
		column = "due_date"
	}
	if filter.SortOrder == repository.SortDesc {
		return fmt.Sprintf(" ORDER BY t.%s DESC NULLS LAST, t.id", column)
	}
	return fmt.Sprintf(" ORDER BY t.%s ASC NULLS FIRST, t.id", column)
}

func (r *TaskRepo) count(ctx context.Context, b *whereBuilder) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks t`+b.sql(), slices.Clone(b.args)...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("подсчёт задач: %w", err)
	}
	return total, nil
}

func (r *TaskRepo) List(ctx context.Context, filter repository.TaskFilter, page repository.Page) ([]*task.Task, int, error) {
	start := time.Now()
	defer observe(start, "task.list")

	b := taskWhere(filter)
	total, err := r.count(ctx, b)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks t` + b.sql() + taskOrderBy(filter) + b.limitOffset(page)
	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}
		if err := rows.Scan(taskScanTargets(t)...); err != nil {
			return nil, 0, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, total, nil
}

func (r *TaskRepo) ListWithOwner(ctx context.Context, filter repository.TaskFilter, page repository.Page) ([]*repository.TaskWithOwner, int, error) {
	start := time.Now()
	defer observe(start, "task.list_with_owner")

	b := taskWhere(filter)
	total, err := r.count(ctx, b)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + taskColumns + `, u.id, u.name, u.email
				FROM tasks t
				LEFT JOIN users u ON u.id = t.user_id` +
		b.sql() + taskOrderBy(filter) + b.limitOffset(page)

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	res := []*repository.TaskWithOwner{}
	for rows.Next() {
		t := &task.Task{}
		var ownerID *uuid.UUID
		var ownerName, ownerEmail *string

		targets := append(taskScanTargets(t), &ownerID, &ownerName, &ownerEmail)
		if err := rows.Scan(targets...); err != nil {
			return nil, 0, fmt.Errorf("сканирование задачи: %w", err)
		}

		item := &repository.TaskWithOwner{Task: t}
		if ownerID != nil {
			item.User = &user.Summary{ID: *ownerID, Name: deref(ownerName), Email: deref(ownerEmail)}
		}
		res = append(res, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}
	return res, total, nil
}

// MarkOverdue переводит в overdue все pending задачи со сроком раньше now одним запросом.
// userID == nil означает задачи всех пользователей.
func (r *TaskRepo) MarkOverdue(ctx context.Context, userID *uuid.UUID, now time.Time) (int64, error) {
	start := time.Now()
	defer observe(start, "task.mark_overdue")

	query := `UPDATE tasks SET status = $1, updated_at = NOW()
				WHERE status = $2 AND due_date < $3`
	args := []any{task.StatusOverdue, task.StatusPending, now}
	if userID != nil {
		query += ` AND user_id = $4`
		args = append(args, *userID)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось отметить просроченные задачи", err)
		return 0, fmt.Errorf("отметка просроченных задач: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TaskRepo) Count(ctx context.Context, userID *uuid.UUID, status task.Status) (int, error) {
	b := taskWhere(repository.TaskFilter{UserID: userID, Status: status})
	return r.count(ctx, b)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

