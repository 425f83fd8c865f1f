package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"taskFlow/internal/logger"
	"taskFlow/internal/models/user"
	"taskFlow/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const userColumns = `id, name, email, password_hash, role, status, external_id, last_login, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func userScanTargets(u *user.User) []any {
	return []any{
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Status,
		&u.ExternalID,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}

func (r *UserRepo) Create(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()
	defer observe(start, "user.create")

	if userToCreate.ID == uuid.Nil {
		userToCreate.ID = uuid.New()
	}

	query := `INSERT INTO users
				(id, name, email, password_hash, role, status, external_id, last_login)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		userToCreate.ID,
		userToCreate.Name,
		userToCreate.Email,
		userToCreate.PasswordHash,
		userToCreate.Role,
		userToCreate.Status,
		userToCreate.ExternalID,
		userToCreate.LastLogin,
	).Scan(&userToCreate.CreatedAt, &userToCreate.UpdatedAt)
	if err != nil {
		err = mapError(err)
		logger.Warn("Repository: Не удалось добавить пользователя", zap.Error(err))
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, userToUpdate *user.User) error {
	start := time.Now()
	defer observe(start, "user.update")

	query := `UPDATE users
			SET name = $1,
				email = $2,
				password_hash = $3,
				role = $4,
				status = $5,
				external_id = $6,
				last_login = $7,
				updated_at = NOW()
			WHERE id = $8
			RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		userToUpdate.Name,
		userToUpdate.Email,
		userToUpdate.PasswordHash,
		userToUpdate.Role,
		userToUpdate.Status,
		userToUpdate.ExternalID,
		userToUpdate.LastLogin,
		userToUpdate.ID,
	).Scan(&userToUpdate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("обновление пользователя: %w", mapError(err))
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*user.User, error) {
	u := &user.User{}
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).Scan(userScanTargets(u)...)
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", mapError(err))
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	return r.getOne(ctx, `external_id = $1`, externalID)
}

func userWhere(filter repository.UserFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.Status != "" {
		b.add("status = $%d", filter.Status)
	}
	if filter.Role != "" {
		b.add("role = $%d", filter.Role)
	}
	return b
}

// List возвращает пользователей от новых к старым.
func (r *UserRepo) List(ctx context.Context, filter repository.UserFilter, page repository.Page) ([]*user.User, int, error) {
	start := time.Now()
	defer observe(start, "user.list")

	b := userWhere(filter)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+b.sql(), slices.Clone(b.args)...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт пользователей: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + b.sql() + ` ORDER BY created_at DESC, id` + b.limitOffset(page)
	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, 0, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(userScanTargets(u)...); err != nil {
			return nil, 0, fmt.Errorf("сканирование пользователя: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, total, nil
}

func (r *UserRepo) Count(ctx context.Context, filter repository.UserFilter) (int, error) {
	b := userWhere(filter)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+b.sql(), b.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("подсчёт пользователей: %w", err)
	}
	return total, nil
}

// Delete удаляет пользователя и все его задачи в одной транзакции.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer observe(start, "user.delete")

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("удаление задач пользователя: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("удаление пользователя: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}
