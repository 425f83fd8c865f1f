package handlers

import (
	"context"

	"taskFlow/internal/models/task"
	"taskFlow/internal/models/user"
	"taskFlow/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	List(ctx context.Context, userID uuid.UUID, q service.TaskQuery) (*service.TaskPage, error)
	Stats(ctx context.Context, userID uuid.UUID) (*service.TaskStats, error)
	Create(ctx context.Context, userID uuid.UUID, in service.CreateTaskInput) (*task.Task, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, userID, id uuid.UUID, in service.UpdateTaskInput) (*task.Task, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	LoginWithExternal(ctx context.Context, idToken string) (*service.AuthResult, error)
}

type AdminService interface {
	CreateUser(ctx context.Context, in service.CreateUserInput) (*service.CreatedUser, error)
	ListUsers(ctx context.Context, q service.UserQuery) (*service.UserPage, error)
	ListTasks(ctx context.Context, q service.AdminTaskQuery) (*service.AdminTaskPage, error)
	ListAuditLogs(ctx context.Context, q service.AuditQuery) (*service.AuditPage, error)
	Stats(ctx context.Context) (*service.AdminStats, error)
	UpdateUserStatus(ctx context.Context, actorID, targetID uuid.UUID, status user.Status) (*user.User, error)
	UpdateUserRole(ctx context.Context, actorID, targetID uuid.UUID, role user.Role) (*user.User, error)
	DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error
}

type HealthService interface {
	Check(ctx context.Context) *service.HealthReport
}
