// Package postgres - хранилище задач, пользователей и журнала аудита в PostgreSQL.
// Схема встроена в бинарник и применяется через golang-migrate.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"taskFlow/internal/logger"
	"taskFlow/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const slowQuery = 100 * time.Millisecond

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Options struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, opts Options) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Tasks() *TaskRepo { return &TaskRepo{pool: s.pool} }

func (s *Storage) Users() *UserRepo { return &UserRepo{pool: s.pool} }

func (s *Storage) Audit() *AuditRepo { return &AuditRepo{pool: s.pool} }

// Migrate применяет (direction "up") или откатывает ("down") встроенные миграции.
func Migrate(connString, direction string) error {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return fmt.Errorf("открытие соединения для миграций: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("драйвер миграций: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("создание мигратора: %w", err)
	}

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return fmt.Errorf("неизвестное направление миграций %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка применения миграций", err, zap.String("direction", direction))
		return fmt.Errorf("миграции %s: %w", direction, err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Repository: Миграции применены",
		zap.String("direction", direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// mapError приводит ошибки драйвера к ошибкам пакета repository.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func observe(start time.Time, op string) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.String("op", op), zap.Duration("ms", elapsed))
	}
}

// whereBuilder собирает условия WHERE с позиционными параметрами.
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) add(cond string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, fmt.Sprintf(cond, len(b.args)))
}

func (b *whereBuilder) sql() string {
	if len(b.conds) == 0 {
		return ""
	}
	res := " WHERE " + b.conds[0]
	for _, c := range b.conds[1:] {
		res += " AND " + c
	}
	return res
}

// limitOffset добавляет LIMIT/OFFSET параметрами после условий.
func (b *whereBuilder) limitOffset(page repository.Page) string {
	if page.Limit <= 0 {
		b.args = append(b.args, page.Offset())
		return fmt.Sprintf(" OFFSET $%d", len(b.args))
	}
	b.args = append(b.args, page.Limit, page.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(b.args)-1, len(b.args))
}

func (s *Storage) AcquiredConns() int32 {
	return s.pool.Stat().AcquiredConns()
}
