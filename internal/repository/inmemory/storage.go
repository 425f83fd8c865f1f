// Package inmemory хранит задачи, пользователей и журнал аудита в памяти процесса.
// Используется в разработке и в тестах, данные теряются при перезапуске.
package inmemory

import (
	"context"
	"sync"
	"time"

	"taskFlow/internal/logger"
	"taskFlow/internal/models/audit"
	"taskFlow/internal/models/task"
	"taskFlow/internal/models/user"
	"taskFlow/internal/repository"

	"github.com/google/uuid"
)

type Storage struct {
	mtx *sync.RWMutex

	tasks   map[uuid.UUID]*task.Task
	taskIDs []uuid.UUID

	users   map[uuid.UUID]*user.User
	userIDs []uuid.UUID

	logs []*audit.Log

	now func() time.Time
}

func New() *Storage {
	return &Storage{
		mtx:     &sync.RWMutex{},
		tasks:   make(map[uuid.UUID]*task.Task),
		taskIDs: []uuid.UUID{},
		users:   make(map[uuid.UUID]*user.User),
		userIDs: []uuid.UUID{},
		logs:    []*audit.Log{},
		now:     time.Now,
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Close() {}

func (s *Storage) Tasks() *TaskRepo { return &TaskRepo{s: s} }

func (s *Storage) Users() *UserRepo { return &UserRepo{s: s} }

func (s *Storage) Audit() *AuditRepo { return &AuditRepo{s: s} }

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, val := range ids {
		if val == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// paginate возвращает окно [offset, offset+limit). limit <= 0 означает без ограничения.
func paginate[T any](items []T, page repository.Page) []T {
	offset := page.Offset()
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if page.Limit > 0 && len(items) > page.Limit {
		items = items[:page.Limit]
	}
	return items
}

func summaryOf(u *user.User) *user.Summary {
	if u == nil {
		return nil
	}
	return &user.Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}
