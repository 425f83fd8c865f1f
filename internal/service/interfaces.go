package service

import (
	"context"
	"time"

	"taskFlow/internal/auth"
	"taskFlow/internal/mail"
	"taskFlow/internal/models/audit"
	"taskFlow/internal/models/task"
	"taskFlow/internal/models/user"
	"taskFlow/internal/repository"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Delete(context.Context, uuid.UUID) error
	List(context.Context, repository.TaskFilter, repository.Page) ([]*task.Task, int, error)
	ListWithOwner(context.Context, repository.TaskFilter, repository.Page) ([]*repository.TaskWithOwner, int, error)
	MarkOverdue(ctx context.Context, userID *uuid.UUID, now time.Time) (int64, error)
	Count(ctx context.Context, userID *uuid.UUID, status task.Status) (int, error)
}

type UserRepository interface {
	Create(context.Context, *user.User) error
	Update(context.Context, *user.User) error
	GetByID(context.Context, uuid.UUID) (*user.User, error)
	GetByEmail(context.Context, string) (*user.User, error)
	GetByExternalID(context.Context, string) (*user.User, error)
	List(context.Context, repository.UserFilter, repository.Page) ([]*user.User, int, error)
	Count(context.Context, repository.UserFilter) (int, error)
	Delete(context.Context, uuid.UUID) error
}

type AuditRepository interface {
	Create(context.Context, *audit.Log) error
	List(context.Context, repository.AuditFilter, repository.Page) ([]*repository.LogWithActor, int, error)
}

type HealthChecker interface {
	HealthCheck(context.Context) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(*user.User) (string, time.Time, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// ExternalLogin - проверка ID-токена внешнего провайдера для входа.
type ExternalLogin interface {
	Available() bool
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

type WelcomeMailer interface {
	Configured() bool
	SendWelcome(ctx context.Context, msg mail.WelcomeMessage) error
}

// PasswordGenerator возвращает случайный пароль заданной длины.
type PasswordGenerator func(length int) (string, error)

type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
