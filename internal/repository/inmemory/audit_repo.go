package inmemory

import (
	"context"

	"taskFlow/internal/models/audit"
	"taskFlow/internal/repository"

	"github.com/google/uuid"
)

type AuditRepo struct {
	s *Storage
}

func (r *AuditRepo) Create(ctx context.Context, entry *audit.Log) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.s.now()
	}

	c := *entry
	r.s.logs = append(r.s.logs, &c)
	return nil
}

// List возвращает записи от новых к старым. Автор подставляется, если он ещё существует.
func (r *AuditRepo) List(ctx context.Context, filter repository.AuditFilter, page repository.Page) ([]*repository.LogWithActor, int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	matched := []*audit.Log{}
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		entry := r.s.logs[i]
		if filter.UserID != nil && (entry.UserID == nil || *entry.UserID != *filter.UserID) {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.Resource != "" && entry.Resource != filter.Resource {
			continue
		}
		matched = append(matched, entry)
	}

	window := paginate(matched, page)
	res := make([]*repository.LogWithActor, 0, len(window))
	for _, entry := range window {
		c := *entry
		withActor := &repository.LogWithActor{Log: &c}
		if entry.UserID != nil {
			withActor.User = summaryOf(r.s.users[*entry.UserID])
		}
		res = append(res, withActor)
	}
	return res, len(matched), nil
}
