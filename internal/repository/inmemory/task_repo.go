package inmemory

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"taskFlow/internal/models/task"
	"taskFlow/internal/repository"

	"github.com/google/uuid"
)

type TaskRepo struct {
	s *Storage
}

func cloneTask(t *task.Task) *task.Task {
	c := *t
	if t.CompletedAt != nil {
		completedAt := *t.CompletedAt
		c.CompletedAt = &completedAt
	}
	c.Tags = slices.Clone(t.Tags)
	c.Attachments = slices.Clone(t.Attachments)
	return &c
}

func (r *TaskRepo) Create(ctx context.Context, taskToCreate *task.Task) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if taskToCreate.ID == uuid.Nil {
		taskToCreate.ID = uuid.New()
	}
	if _, ok := r.s.users[taskToCreate.UserID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.tasks[taskToCreate.ID]; ok {
		return repository.ErrDuplicate
	}

	now := r.s.now()
	taskToCreate.CreatedAt = now
	taskToCreate.UpdatedAt = now

	r.s.tasks[taskToCreate.ID] = cloneTask(taskToCreate)
	r.s.taskIDs = append(r.s.taskIDs, taskToCreate.ID)
	return nil
}

func (r *TaskRepo) Update(ctx context.Context, taskToUpdate *task.Task) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	existing, ok := r.s.tasks[taskToUpdate.ID]
	if !ok {
		return repository.ErrNotFound
	}

	taskToUpdate.UserID = existing.UserID
	taskToUpdate.CreatedAt = existing.CreatedAt
	taskToUpdate.UpdatedAt = r.s.now()
	r.s.tasks[taskToUpdate.ID] = cloneTask(taskToUpdate)
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	taskToGet, ok := r.s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTask(taskToGet), nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tasks, id)
	r.s.taskIDs = removeID(r.s.taskIDs, id)
	return nil
}

func (r *TaskRepo) List(ctx context.Context, filter repository.TaskFilter, page repository.Page) ([]*task.Task, int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	matched := r.filter(filter)
	window := paginate(matched, page)

	res := make([]*task.Task, 0, len(window))
	for _, t := range window {
		res = append(res, cloneTask(t))
	}
	return res, len(matched), nil
}

func (r *TaskRepo) ListWithOwner(ctx context.Context, filter repository.TaskFilter, page repository.Page) ([]*repository.TaskWithOwner, int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	matched := r.filter(filter)
	window := paginate(matched, page)

	res := make([]*repository.TaskWithOwner, 0, len(window))
	for _, t := range window {
		res = append(res, &repository.TaskWithOwner{
			Task: cloneTask(t),
			User: summaryOf(r.s.users[t.UserID]),
		})
	}
	return res, len(matched), nil
}

// MarkOverdue переводит в overdue все pending задачи со сроком раньше now.
// userID == nil означает задачи всех пользователей.
func (r *TaskRepo) MarkOverdue(ctx context.Context, userID *uuid.UUID, now time.Time) (int64, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	var updated int64
	for _, id := range r.s.taskIDs {
		t := r.s.tasks[id]
		if userID != nil && t.UserID != *userID {
			continue
		}
		if t.MarkOverdue(now) {
			t.UpdatedAt = r.s.now()
			updated++
		}
	}
	return updated, nil
}

func (r *TaskRepo) Count(ctx context.Context, userID *uuid.UUID, status task.Status) (int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	count := 0
	for _, t := range r.s.tasks {
		if userID != nil && t.UserID != *userID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		count++
	}
	return count, nil
}

func (r *TaskRepo) filter(filter repository.TaskFilter) []*task.Task {
	res := []*task.Task{}
	for _, id := range r.s.taskIDs {
		t := r.s.tasks[id]
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		res = append(res, t)
	}

	// порядок как в postgres: поле сортировки, при равенстве id по возрастанию
	compare := taskComparator(filter.SortBy)
	desc := filter.SortOrder == repository.SortDesc
	slices.SortFunc(res, func(a, b *task.Task) int {
		c := compare(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return res
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func taskComparator(field string) func(a, b *task.Task) int {
	switch field {
	case "title":
		return func(a, b *task.Task) int { return strings.Compare(a.Title, b.Title) }
	case "description":
		return func(a, b *task.Task) int { return strings.Compare(a.Description, b.Description) }
	case "category":
		return func(a, b *task.Task) int { return cmp.Compare(a.Category, b.Category) }
	case "status":
		return func(a, b *task.Task) int { return cmp.Compare(a.Status, b.Status) }
	case "priority":
		return func(a, b *task.Task) int { return cmp.Compare(a.Priority, b.Priority) }
	case "completedAt":
		return func(a, b *task.Task) int { return compareTime(a.CompletedAt, b.CompletedAt) }
	case "createdAt":
		return func(a, b *task.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updatedAt":
		return func(a, b *task.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return func(a, b *task.Task) int { return a.DueDate.Compare(b.DueDate) }
	}
}
