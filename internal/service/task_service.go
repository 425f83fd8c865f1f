package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskFlow/internal/logger"
	"taskFlow/internal/models/task"
	rep "taskFlow/internal/repository"
	"taskFlow/internal/telemetry"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultTaskLimit = 1000

const msgTaskNotFound = "Task not found"
const msgDueDateInPast = "Due date cannot be in the past"

// здесь происходит проверка ошибок бизнес-логики задач

type TaskService struct {
	repo  TaskRepository
	clock Clock
}

func NewTaskService(repo TaskRepository, clock Clock) *TaskService {
	return &TaskService{
		repo:  repo,
		clock: clock,
	}
}

type TaskQuery struct {
	Page      int
	Limit     int
	Status    string
	Category  string
	SortBy    string
	SortOrder string
}

type TaskPage struct {
	Tasks      []*task.Task `json:"tasks"`
	Pagination Pagination   `json:"pagination"`
}

type TaskStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

type CreateTaskInput struct {
	Title       string
	Description string
	Category    task.Category
	DueDate     time.Time
	Priority    task.Priority
	Tags        []string
	Attachments []task.Attachment
}

// UpdateTaskInput - частичное обновление: nil означает, что поле не передано.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Category    *task.Category
	DueDate     *time.Time
	Status      *task.Status
	Priority    *task.Priority
	Tags        []string
	Attachments []task.Attachment
}

// markOverdue выполняет ленивый переход pending -> overdue. userID == nil - для всех пользователей.
func (s *TaskService) markOverdue(ctx context.Context, userID *uuid.UUID) error {
	updated, err := s.repo.MarkOverdue(ctx, userID, s.clock.now())
	if err != nil {
		return fmt.Errorf("обновление просроченных задач: %w", err)
	}
	if updated > 0 {
		telemetry.OverdueTransitionsTotal.Add(float64(updated))
		logger.Debug("Service: Задачи переведены в overdue", zap.Int64("count", updated))
	}
	return nil
}

func parseTaskFilter(q TaskQuery) (rep.TaskFilter, []FieldError) {
	var fields []FieldError
	filter := rep.TaskFilter{
		Status:    task.Status(allMeansAny(q.Status)),
		Category:  task.Category(allMeansAny(q.Category)),
		SortBy:    q.SortBy,
		SortOrder: rep.SortOrder(strings.ToLower(q.SortOrder)),
	}

	if filter.Status != "" && !filter.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Message: "Invalid status"})
	}
	if filter.Category != "" && !filter.Category.Valid() {
		fields = append(fields, FieldError{Field: "category", Message: "Invalid category"})
	}
	if filter.SortBy == "" {
		filter.SortBy = "dueDate"
	}
	if _, ok := rep.TaskSortFields[filter.SortBy]; !ok {
		fields = append(fields, FieldError{Field: "sortBy", Message: "Invalid sort field"})
	}
	if filter.SortOrder == "" {
		filter.SortOrder = rep.SortAsc
	}
	if filter.SortOrder != rep.SortAsc && filter.SortOrder != rep.SortDesc {
		fields = append(fields, FieldError{Field: "sortOrder", Message: "Sort order must be asc or desc"})
	}
	return filter, fields
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID, q TaskQuery) (*TaskPage, error) {
	filter, fieldErrs := parseTaskFilter(q)
	if len(fieldErrs) > 0 {
		return nil, NewValidationError(fieldErrs...)
	}
	filter.UserID = &userID

	if err := s.markOverdue(ctx, &userID); err != nil {
		return nil, err
	}

	page := normalizePage(q.Page, q.Limit, DefaultTaskLimit)
	tasks, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	return &TaskPage{Tasks: tasks, Pagination: newPagination(page, total)}, nil
}

func (s *TaskService) Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error) {
	if err := s.markOverdue(ctx, &userID); err != nil {
		return nil, err
	}

	stats := &TaskStats{}
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, status task.Status) {
		g.Go(func() error {
			n, err := s.repo.Count(gctx, &userID, status)
			if err != nil {
				return fmt.Errorf("подсчёт задач %q: %w", status, err)
			}
			*dst = n
			return nil
		})
	}
	count(&stats.Total, "")
	count(&stats.Completed, task.StatusCompleted)
	count(&stats.Pending, task.StatusPending)
	count(&stats.Overdue, task.StatusOverdue)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *TaskService) checkDueDate(dueDate time.Time) error {
	if dueDate.Before(task.StartOfDay(s.clock.now())) {
		return NewRuleViolation("dueDate", msgDueDateInPast)
	}
	return nil
}

func cleanTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*task.Task, error) {
	if err := s.checkDueDate(in.DueDate); err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}

	newTask := &task.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		DueDate:     in.DueDate,
		Status:      task.StatusPending,
		Priority:    priority,
		Tags:        cleanTags(in.Tags),
		Attachments: in.Attachments,
	}
	if newTask.Tags == nil {
		newTask.Tags = []string{}
	}
	if newTask.Attachments == nil {
		newTask.Attachments = []task.Attachment{}
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.ID.String()),
		zap.String("user_id", userID.String()))
	return newTask, nil
}

// getOwned возвращает задачу только её владельцу. Чужая задача неотличима от несуществующей.
func (s *TaskService) getOwned(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(msgTaskNotFound)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	if t.UserID != userID {
		logger.Info("Service: Попытка доступа к чужой задаче",
			zap.String("target_id", id.String()),
			zap.String("user_id", userID.String()))
		return nil, NewNotFound(msgTaskNotFound)
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	t, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if t.MarkOverdue(s.clock.now()) {
		if err := s.repo.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("обновление просроченной задачи: %w", err)
		}
		telemetry.OverdueTransitionsTotal.Inc()
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id uuid.UUID, in UpdateTaskInput) (*task.Task, error) {
	if in.DueDate != nil {
		if err := s.checkDueDate(*in.DueDate); err != nil {
			return nil, err
		}
	}

	t, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}

	t.Apply(
		task.WithTitle(in.Title),
		task.WithDescription(in.Description),
		task.WithCategory(in.Category),
		task.WithDueDate(in.DueDate),
		task.WithPriority(in.Priority),
		task.WithTags(cleanTags(in.Tags)),
		task.WithAttachments(in.Attachments),
		task.WithStatus(in.Status, s.clock.now()),
	)

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(msgTaskNotFound)
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(msgTaskNotFound)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}
