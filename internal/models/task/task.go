package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	UserID      uuid.UUID    `json:"userId" db:"user_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Category    Category     `json:"category" db:"category"`
	DueDate     time.Time    `json:"dueDate" db:"due_date"`
	Status      Status       `json:"status" db:"status"`
	Priority    Priority     `json:"priority" db:"priority"`
	CompletedAt *time.Time   `json:"completedAt" db:"completed_at"`
	Tags        []string     `json:"tags" db:"tags"`
	Attachments []Attachment `json:"attachments" db:"attachments"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
}

type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

type Status string
type Category string
type Priority string

const StatusPending Status = "pending"
const StatusCompleted Status = "completed"
const StatusOverdue Status = "overdue"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"

const (
	CategoryWork      Category = "Work"
	CategoryPersonal  Category = "Personal"
	CategoryHealth    Category = "Health"
	CategoryEducation Category = "Education"
	CategoryShopping  Category = "Shopping"
	CategoryFinance   Category = "Finance"
	CategoryTravel    Category = "Travel"
	CategoryOther     Category = "Other"
)

var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryHealth,
	CategoryEducation,
	CategoryShopping,
	CategoryFinance,
	CategoryTravel,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusOverdue
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// IsOverdueAt сообщает, должна ли задача перейти в статус overdue к моменту now.
// Просроченной считается только задача в статусе pending.
func (t *Task) IsOverdueAt(now time.Time) bool {
	return t.Status == StatusPending && t.DueDate.Before(now)
}

// MarkOverdue переводит задачу в overdue, если срок истёк. Возвращает true, если статус изменился.
func (t *Task) MarkOverdue(now time.Time) bool {
	if !t.IsOverdueAt(now) {
		return false
	}
	t.Status = StatusOverdue
	return true
}

// SetStatus меняет статус и поддерживает completedAt в согласованном состоянии:
// completedAt заполнен тогда и только тогда, когда статус completed.
func (t *Task) SetStatus(status Status, now time.Time) {
	previous := t.Status
	t.Status = status

	switch {
	case status != StatusCompleted:
		t.CompletedAt = nil
	case previous != StatusCompleted || t.CompletedAt == nil:
		stamp := now
		t.CompletedAt = &stamp
	}
}

// StartOfDay возвращает полночь текущего дня в часовом поясе now.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
