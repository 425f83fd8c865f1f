package handlers_test

import (
	"context"

	"taskFlow/internal/models/task"
	"taskFlow/internal/models/user"
	"taskFlow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) List(ctx context.Context, userID uuid.UUID, q service.TaskQuery) (*service.TaskPage, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskPage), args.Error(1)
}

func (m *MockTaskService) Stats(ctx context.Context, userID uuid.UUID) (*service.TaskStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskStats), args.Error(1)
}

func (m *MockTaskService) Create(ctx context.Context, userID uuid.UUID, in service.CreateTaskInput) (*task.Task, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, userID, id uuid.UUID, in service.UpdateTaskInput) (*task.Task, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) LoginWithExternal(ctx context.Context, idToken string) (*service.AuthResult, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) CreateUser(ctx context.Context, in service.CreateUserInput) (*service.CreatedUser, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreatedUser), args.Error(1)
}

func (m *MockAdminService) ListUsers(ctx context.Context, q service.UserQuery) (*service.UserPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserPage), args.Error(1)
}

func (m *MockAdminService) ListTasks(ctx context.Context, q service.AdminTaskQuery) (*service.AdminTaskPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdminTaskPage), args.Error(1)
}

func (m *MockAdminService) ListAuditLogs(ctx context.Context, q service.AuditQuery) (*service.AuditPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuditPage), args.Error(1)
}

func (m *MockAdminService) Stats(ctx context.Context) (*service.AdminStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdminStats), args.Error(1)
}

func (m *MockAdminService) UpdateUserStatus(ctx context.Context, actorID, targetID uuid.UUID, status user.Status) (*user.User, error) {
	args := m.Called(ctx, actorID, targetID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockAdminService) UpdateUserRole(ctx context.Context, actorID, targetID uuid.UUID, role user.Role) (*user.User, error) {
	args := m.Called(ctx, actorID, targetID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockAdminService) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	args := m.Called(ctx, actorID, targetID)
	return args.Error(0)
}

type stubHealth struct {
	report *service.HealthReport
}

func (s *stubHealth) Check(ctx context.Context) *service.HealthReport {
	return s.report
}
