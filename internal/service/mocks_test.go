package service_test

import (
	"context"
	"errors"
	"time"

	"taskFlow/internal/auth"
	"taskFlow/internal/mail"
	"taskFlow/internal/models/audit"
	"taskFlow/internal/models/task"
	"taskFlow/internal/models/user"
	"taskFlow/internal/repository"
	"taskFlow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskRepository) List(ctx context.Context, f repository.TaskFilter, p repository.Page) ([]*task.Task, int, error) {
	args := m.Called(ctx, f, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*task.Task), args.Int(1), args.Error(2)
}

func (m *MockTaskRepository) ListWithOwner(ctx context.Context, f repository.TaskFilter, p repository.Page) ([]*repository.TaskWithOwner, int, error) {
	args := m.Called(ctx, f, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*repository.TaskWithOwner), args.Int(1), args.Error(2)
}

func (m *MockTaskRepository) MarkOverdue(ctx context.Context, userID *uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Count(ctx context.Context, userID *uuid.UUID, status task.Status) (int, error) {
	args := m.Called(ctx, userID, status)
	return args.Int(0), args.Error(1)
}

// MockUserRepository - мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByExternalID(ctx context.Context, ext string) (*user.User, error) {
	args := m.Called(ctx, ext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, f repository.UserFilter, p repository.Page) ([]*user.User, int, error) {
	args := m.Called(ctx, f, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*user.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) Count(ctx context.Context, f repository.UserFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockAuditRepository - мок журнала аудита
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, l *audit.Log) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, f repository.AuditFilter, p repository.Page) ([]*repository.LogWithActor, int, error) {
	args := m.Called(ctx, f, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*repository.LogWithActor), args.Int(1), args.Error(2)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockMailer) SendWelcome(ctx context.Context, msg mail.WelcomeMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Available() bool {
	return m.Called().Bool(0)
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Identity), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(u *user.User) (string, time.Time, error) {
	args := m.Called(u)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// plainHasher - хешер без bcrypt, чтобы тесты были быстрыми
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (plainHasher) Verify(p, h string) bool { return h == "hashed:"+p }

var (
	_ service.TaskRepository  = (*MockTaskRepository)(nil)
	_ service.UserRepository  = (*MockUserRepository)(nil)
	_ service.AuditRepository = (*MockAuditRepository)(nil)
	_ service.WelcomeMailer   = (*MockMailer)(nil)
	_ service.ExternalLogin   = (*MockVerifier)(nil)
	_ service.TokenVerifier   = (*MockVerifier)(nil)
	_ service.TokenIssuer     = (*MockTokenIssuer)(nil)
	_ service.PasswordHasher  = plainHasher{}
)

// fixedNow - фиксированное "сейчас" для всех тестов сервиса
var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)

func fixedClock() time.Time { return fixedNow }

func businessCode(err error) string {
	var be *service.BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
