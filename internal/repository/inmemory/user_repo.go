package inmemory

import (
	"context"
	"slices"
	"strings"

	"taskFlow/internal/models/user"
	"taskFlow/internal/repository"

	"github.com/google/uuid"
)

type UserRepo struct {
	s *Storage
}

func cloneUser(u *user.User) *user.User {
	c := *u
	if u.ExternalID != nil {
		ext := *u.ExternalID
		c.ExternalID = &ext
	}
	if u.LastLogin != nil {
		lastLogin := *u.LastLogin
		c.LastLogin = &lastLogin
	}
	return &c
}

// conflicts ищет другого пользователя с тем же email или внешним идентификатором.
func (r *UserRepo) conflicts(candidate *user.User) bool {
	for id, u := range r.s.users {
		if id == candidate.ID {
			continue
		}
		if strings.EqualFold(u.Email, candidate.Email) {
			return true
		}
		if u.ExternalID != nil && candidate.ExternalID != nil && *u.ExternalID == *candidate.ExternalID {
			return true
		}
	}
	return false
}

func (r *UserRepo) Create(ctx context.Context, userToCreate *user.User) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if userToCreate.ID == uuid.Nil {
		userToCreate.ID = uuid.New()
	}
	if _, ok := r.s.users[userToCreate.ID]; ok || r.conflicts(userToCreate) {
		return repository.ErrDuplicate
	}

	now := r.s.now()
	userToCreate.CreatedAt = now
	userToCreate.UpdatedAt = now

	r.s.users[userToCreate.ID] = cloneUser(userToCreate)
	r.s.userIDs = append(r.s.userIDs, userToCreate.ID)
	return nil
}

func (r *UserRepo) Update(ctx context.Context, userToUpdate *user.User) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	existing, ok := r.s.users[userToUpdate.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.conflicts(userToUpdate) {
		return repository.ErrDuplicate
	}

	userToUpdate.CreatedAt = existing.CreatedAt
	userToUpdate.UpdatedAt = r.s.now()
	r.s.users[userToUpdate.ID] = cloneUser(userToUpdate)
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	for _, u := range r.s.users {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

// List возвращает пользователей от новых к старым.
func (r *UserRepo) List(ctx context.Context, filter repository.UserFilter, page repository.Page) ([]*user.User, int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	matched := r.filter(filter)
	slices.Reverse(matched)
	window := paginate(matched, page)

	res := make([]*user.User, 0, len(window))
	for _, u := range window {
		res = append(res, cloneUser(u))
	}
	return res, len(matched), nil
}

func (r *UserRepo) Count(ctx context.Context, filter repository.UserFilter) (int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	return len(r.filter(filter)), nil
}

// Delete удаляет пользователя вместе со всеми его задачами.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}

	for _, taskID := range slices.Clone(r.s.taskIDs) {
		if r.s.tasks[taskID].UserID == id {
			delete(r.s.tasks, taskID)
			r.s.taskIDs = removeID(r.s.taskIDs, taskID)
		}
	}

	delete(r.s.users, id)
	r.s.userIDs = removeID(r.s.userIDs, id)
	return nil
}

func (r *UserRepo) filter(filter repository.UserFilter) []*user.User {
	res := []*user.User{}
	for _, id := range r.s.userIDs {
		u := r.s.users[id]
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		res = append(res, u)
	}
	return res
}
