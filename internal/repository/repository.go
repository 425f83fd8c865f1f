package repository

import (
	"errors"

	"taskFlow/internal/models/audit"
	"taskFlow/internal/models/task"
	"taskFlow/internal/models/user"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("запись не найдена")
	ErrDuplicate = errors.New("запись уже существует")
)

type SortOrder string

const SortAsc SortOrder = "asc"
const SortDesc SortOrder = "desc"

// TaskSortFields - поля задачи, по которым разрешена сортировка, и их колонки в БД.
var TaskSortFields = map[string]string{
	"title":       "title",
	"description": "description",
	"category":    "category",
	"dueDate":     "due_date",
	"status":      "status",
	"priority":    "priority",
	"completedAt": "completed_at",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// TaskFilter - фильтр списка задач. Пустые поля не фильтруют.
type TaskFilter struct {
	UserID    *uuid.UUID
	Status    task.Status
	Category  task.Category
	SortBy    string
	SortOrder SortOrder
}

type UserFilter struct {
	Status user.Status
	Role   user.Role
}

type AuditFilter struct {
	UserID   *uuid.UUID
	Action   audit.Action
	Resource string
}

// TaskWithOwner - задача вместе с краткой информацией о владельце.
type TaskWithOwner struct {
	*task.Task
	User *user.Summary `json:"user"`
}

// LogWithActor - запись аудита вместе с краткой информацией об авторе.
// User равен nil, если пользователь уже удалён.
type LogWithActor struct {
	*audit.Log
	User *user.Summary `json:"user"`
}
