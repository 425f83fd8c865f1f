package dto

import (
	"strings"
	"time"

	"taskFlow/internal/models/task"
)

const dateOnly = "2006-01-02"

type CreateTaskRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=2000"`
	Category    task.Category     `json:"category" validate:"required,oneof=Work Personal Health Education Shopping Finance Travel Other"`
	DueDate     string            `json:"dueDate" validate:"required"`
	Priority    task.Priority     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        []string          `json:"tags" validate:"max=50,dive,max=50"`
	Attachments []task.Attachment `json:"attachments" validate:"max=20"`
}

func (r *CreateTaskRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

// UpdateTaskRequest - частичное обновление, nil означает "поле не передано".
type UpdateTaskRequest struct {
	Title       *string            `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string            `json:"description" validate:"omitnil,max=2000"`
	Category    *task.Category     `json:"category" validate:"omitnil,oneof=Work Personal Health Education Shopping Finance Travel Other"`
	DueDate     *string            `json:"dueDate"`
	Status      *task.Status       `json:"status" validate:"omitnil,oneof=pending completed overdue"`
	Priority    *task.Priority     `json:"priority" validate:"omitnil,oneof=low medium high"`
	Tags        *[]string          `json:"tags" validate:"omitnil,max=50,dive,max=50"`
	Attachments *[]task.Attachment `json:"attachments" validate:"omitnil,max=20"`
}

func (r *UpdateTaskRequest) Normalize() {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		r.Title = &title
	}
	if r.Description != nil {
		description := strings.TrimSpace(*r.Description)
		r.Description = &description
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ExternalLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=user admin"`
}

func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// ParseDate принимает RFC 3339 или дату без времени (полночь по местному времени).
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(dateOnly, value, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}
