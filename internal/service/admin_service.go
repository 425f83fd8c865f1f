package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskFlow/internal/auth"
	"taskFlow/internal/logger"
	"taskFlow/internal/mail"
	"taskFlow/internal/models/audit"
	"taskFlow/internal/models/task"
	"taskFlow/internal/models/user"
	rep "taskFlow/internal/repository"
	"taskFlow/internal/telemetry"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultAdminLimit = 10

const (
	EmailSent          = "sent"
	EmailFailed        = "failed"
	EmailNotConfigured = "not-configured"
)

const (
	msgTargetNotFound = "User not found"
	msgSelfStatus     = "Cannot modify your own account status"
	msgSelfRole       = "Cannot modify your own role"
	msgSelfDelete     = "Cannot delete your own account"
)

type AdminService struct {
	users              UserRepository
	tasks              TaskRepository
	audit              AuditRepository
	hasher             PasswordHasher
	mailer             WelcomeMailer
	generate           PasswordGenerator
	pwdLength          int
	exposeTempPassword bool
	clock              Clock
}

type AdminOptions struct {
	PasswordLength int
	// ExposeTempPassword возвращает временный пароль в ответе (не production окружения).
	ExposeTempPassword bool
	Generate           PasswordGenerator
}

func NewAdminService(
	users UserRepository,
	tasks TaskRepository,
	auditRepo AuditRepository,
	hasher PasswordHasher,
	mailer WelcomeMailer,
	opts AdminOptions,
	clock Clock,
) *AdminService {
	if opts.Generate == nil {
		opts.Generate = auth.GeneratePassword
	}
	if opts.PasswordLength <= 0 {
		opts.PasswordLength = auth.DefaultPasswordLength
	}
	return &AdminService{
		users:              users,
		tasks:              tasks,
		audit:              auditRepo,
		hasher:             hasher,
		mailer:             mailer,
		generate:           opts.Generate,
		pwdLength:          opts.PasswordLength,
		exposeTempPassword: opts.ExposeTempPassword,
		clock:              clock,
	}
}

type CreateUserInput struct {
	Name  string
	Email string
	Role  user.Role
}

type CreatedUser struct {
	User         *user.User
	EmailStatus  string
	TempPassword string
}

type UserQuery struct {
	Page   int
	Limit  int
	Status string
	Role   string
}

type UserPage struct {
	Users      []*user.User `json:"users"`
	Pagination Pagination   `json:"pagination"`
}

type AdminTaskQuery struct {
	Page     int
	Limit    int
	Status   string
	Category string
	UserID   *uuid.UUID
}

type AdminTaskPage struct {
	Tasks      []*rep.TaskWithOwner `json:"tasks"`
	Pagination Pagination           `json:"pagination"`
}

type AuditQuery struct {
	Page     int
	Limit    int
	Action   string
	Resource string
	UserID   *uuid.UUID
}

type AuditPage struct {
	Logs       []*rep.LogWithActor `json:"logs"`
	Pagination Pagination          `json:"pagination"`
}

type AdminStats struct {
	TotalUsers     int `json:"totalUsers"`
	ActiveUsers    int `json:"activeUsers"`
	InactiveUsers  int `json:"inactiveUsers"`
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	PendingTasks   int `json:"pendingTasks"`
	OverdueTasks   int `json:"overdueTasks"`
}

func (s *AdminService) CreateUser(ctx context.Context, in CreateUserInput) (*CreatedUser, error) {
	role := in.Role
	if role == "" {
		role = user.RoleUser
	}

	tempPassword, err := s.generate(s.pwdLength)
	if err != nil {
		return nil, fmt.Errorf("генерация пароля: %w", err)
	}
	hash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	u := &user.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
		Status:       user.StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, rep.ErrDuplicate) {
			return nil, NewBusinessError(CodeDuplicateEmail, msgDuplicateEmail)
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	status := s.sendWelcome(ctx, u, tempPassword)
	telemetry.WelcomeEmailsTotal.WithLabelValues(status).Inc()

	logger.Info("Service: Пользователь создан администратором",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(u.Role)),
		zap.String("email_status", status))

	created := &CreatedUser{User: u, EmailStatus: status}
	if s.exposeTempPassword {
		created.TempPassword = tempPassword
	}
	return created, nil
}

// sendWelcome отправляет письмо и сводит результат к статусу. Ошибка отправки не прерывает создание.
func (s *AdminService) sendWelcome(ctx context.Context, u *user.User, tempPassword string) string {
	if s.mailer == nil {
		return EmailNotConfigured
	}

	err := s.mailer.SendWelcome(ctx, mail.WelcomeMessage{
		Name:         u.Name,
		Email:        u.Email,
		TempPassword: tempPassword,
	})
	switch {
	case err != nil:
		logger.Warn("Service: Не удалось отправить приветственное письмо",
			zap.String("user_id", u.ID.String()), zap.Error(err))
		return EmailFailed
	case !s.mailer.Configured():
		return EmailNotConfigured
	default:
		return EmailSent
	}
}

func (s *AdminService) ListUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	filter := rep.UserFilter{
		Status: user.Status(allMeansAny(q.Status)),
		Role:   user.Role(allMeansAny(q.Role)),
	}

	var fields []FieldError
	if filter.Status != "" && !filter.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Message: "Invalid status"})
	}
	if filter.Role != "" && !filter.Role.Valid() {
		fields = append(fields, FieldError{Field: "role", Message: "Invalid role"})
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}

	page := normalizePage(q.Page, q.Limit, DefaultAdminLimit)
	users, total, err := s.users.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	return &UserPage{Users: users, Pagination: newPagination(page, total)}, nil
}

func (s *AdminService) markAllOverdue(ctx context.Context) error {
	updated, err := s.tasks.MarkOverdue(ctx, nil, s.clock.now())
	if err != nil {
		return fmt.Errorf("обновление просроченных задач: %w", err)
	}
	if updated > 0 {
		telemetry.OverdueTransitionsTotal.Add(float64(updated))
	}
	return nil
}

func (s *AdminService) ListTasks(ctx context.Context, q AdminTaskQuery) (*AdminTaskPage, error) {
	filter := rep.TaskFilter{
		UserID:    q.UserID,
		Status:    task.Status(allMeansAny(q.Status)),
		Category:  task.Category(allMeansAny(q.Category)),
		SortBy:    "createdAt",
		SortOrder: rep.SortDesc,
	}

	var fields []FieldError
	if filter.Status != "" && !filter.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Message: "Invalid status"})
	}
	if filter.Category != "" && !filter.Category.Valid() {
		fields = append(fields, FieldError{Field: "category", Message: "Invalid category"})
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}

	if err := s.markAllOverdue(ctx); err != nil {
		return nil, err
	}

	page := normalizePage(q.Page, q.Limit, DefaultAdminLimit)
	tasks, total, err := s.tasks.ListWithOwner(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return &AdminTaskPage{Tasks: tasks, Pagination: newPagination(page, total)}, nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, q AuditQuery) (*AuditPage, error) {
	filter := rep.AuditFilter{
		UserID:   q.UserID,
		Action:   audit.Action(strings.ToUpper(allMeansAny(q.Action))),
		Resource: allMeansAny(q.Resource),
	}

	page := normalizePage(q.Page, q.Limit, DefaultAdminLimit)
	logs, total, err := s.audit.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("получение журнала аудита: %w", err)
	}
	return &AuditPage{Logs: logs, Pagination: newPagination(page, total)}, nil
}

// Stats считает агрегаты независимыми параллельными запросами после глобального перехода в overdue.
func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	if err := s.markAllOverdue(ctx); err != nil {
		return nil, err
	}

	stats := &AdminStats{}
	g, gctx := errgroup.WithContext(ctx)

	countUsers := func(dst *int, filter rep.UserFilter) {
		g.Go(func() error {
			n, err := s.users.Count(gctx, filter)
			if err != nil {
				return fmt.Errorf("подсчёт пользователей: %w", err)
			}
			*dst = n
			return nil
		})
	}
	countTasks := func(dst *int, status task.Status) {
		g.Go(func() error {
			n, err := s.tasks.Count(gctx, nil, status)
			if err != nil {
				return fmt.Errorf("подсчёт задач: %w", err)
			}
			*dst = n
			return nil
		})
	}

	countUsers(&stats.TotalUsers, rep.UserFilter{})
	countUsers(&stats.ActiveUsers, rep.UserFilter{Status: user.StatusActive})
	countUsers(&stats.InactiveUsers, rep.UserFilter{Status: user.StatusInactive})
	countTasks(&stats.TotalTasks, "")
	countTasks(&stats.CompletedTasks, task.StatusCompleted)
	countTasks(&stats.PendingTasks, task.StatusPending)
	countTasks(&stats.OverdueTasks, task.StatusOverdue)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) getTarget(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(msgTargetNotFound)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *AdminService) UpdateUserStatus(ctx context.Context, actorID, targetID uuid.UUID, status user.Status) (*user.User, error) {
	u, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if targetID == actorID {
		return nil, NewSelfModification(msgSelfStatus)
	}

	u.Status = status
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("обновление статуса пользователя: %w", err)
	}

	logger.Info("Service: Статус пользователя изменён",
		zap.String("user_id", u.ID.String()),
		zap.String("status", string(status)),
		zap.String("actor_id", actorID.String()))
	return u, nil
}

func (s *AdminService) UpdateUserRole(ctx context.Context, actorID, targetID uuid.UUID, role user.Role) (*user.User, error) {
	u, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if targetID == actorID {
		return nil, NewSelfModification(msgSelfRole)
	}

	u.Role = role
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("обновление роли пользователя: %w", err)
	}

	logger.Info("Service: Роль пользователя изменена",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(role)),
		zap.String("actor_id", actorID.String()))
	return u, nil
}

// DeleteUser удаляет пользователя вместе с его задачами.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	if _, err := s.getTarget(ctx, targetID); err != nil {
		return err
	}
	if targetID == actorID {
		return NewSelfModification(msgSelfDelete)
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(msgTargetNotFound)
		}
		return fmt.Errorf("удаление пользователя: %w", err)
	}

	logger.Info("Service: Пользователь удалён",
		zap.String("user_id", targetID.String()),
		zap.String("actor_id", actorID.String()))
	return nil
}
