package task

import (
	"time"
)

// TaskOption применяет одно поле частичного обновления.
// Опции, построенные из пустых значений, равны nil и пропускаются при применении.
type TaskOption func(*Task)

func WithTitle(title *string) TaskOption {
	if title == nil {
		return nil
	}
	return func(task *Task) {
		task.Title = *title
	}
}

func WithDescription(description *string) TaskOption {
	if description == nil {
		return nil
	}
	return func(task *Task) {
		task.Description = *description
	}
}

func WithCategory(category *Category) TaskOption {
	if category == nil {
		return nil
	}
	return func(task *Task) {
		task.Category = *category
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	if dueDate == nil || dueDate.IsZero() {
		return nil
	}
	return func(task *Task) {
		task.DueDate = *dueDate
	}
}

func WithPriority(priority *Priority) TaskOption {
	if priority == nil {
		return nil
	}
	return func(task *Task) {
		task.Priority = *priority
	}
}

func WithTags(tags []string) TaskOption {
	if tags == nil {
		return nil
	}
	return func(task *Task) {
		task.Tags = tags
	}
}

func WithAttachments(attachments []Attachment) TaskOption {
	if attachments == nil {
		return nil
	}
	return func(task *Task) {
		task.Attachments = attachments
	}
}

// WithStatus меняет статус через SetStatus, чтобы completedAt менялся вместе с ним.
func WithStatus(status *Status, now time.Time) TaskOption {
	if status == nil {
		return nil
	}
	return func(task *Task) {
		task.SetStatus(*status, now)
	}
}

// Apply применяет опции по порядку, пропуская nil.
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}
