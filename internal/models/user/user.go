package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Status       Status     `json:"status" db:"status"`
	ExternalID   *string    `json:"externalId,omitempty" db:"external_id"`
	LastLogin    *time.Time `json:"lastLogin" db:"last_login"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

type Role string
type Status string

const RoleUser Role = "user"
const RoleAdmin Role = "admin"

const StatusActive Status = "active"
const StatusInactive Status = "inactive"

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

func (u *User) IsActive() bool {
	return u.Status != StatusInactive
}

// RoleSet - набор ролей, которым разрешён доступ к маршруту.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(role Role) bool {
	_, ok := s[role]
	return ok
}

// Summary - минимальная проекция пользователя для чужих списков (задачи, аудит).
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
