package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskFlow/internal/auth"
	"taskFlow/internal/config"
	"taskFlow/internal/handlers"
	"taskFlow/internal/logger"
	"taskFlow/internal/mail"
	"taskFlow/internal/middleware"
	"taskFlow/internal/repository/inmemory"
	"taskFlow/internal/repository/postgres"
	"taskFlow/internal/service"
	"taskFlow/internal/telemetry"
	"taskFlow/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const externalDiscoveryTimeout = 10 * time.Second
const poolStatsInterval = 15 * time.Second

type repositories struct {
	tasks  service.TaskRepository
	users  service.UserRepository
	audit  service.AuditRepository
	health service.HealthChecker
}

type App struct {
	config        *config.Config
	server        *http.Server
	metricsServer *http.Server
	router        http.Handler
	auditor       *middleware.Auditor
	repos         repositories
	worker        *worker.OverdueWorker
	background    []func(ctx context.Context)
	shutdowns     []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development, a.config.Logging.Level); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if a.config.JWTSecretGenerated {
		logger.Warn("App: JWT секрет не задан, сгенерирован временный (токены не переживут перезапуск)")
	}

	if err := a.initRepositories(ctx); err != nil {
		return err
	}

	hasher := auth.NewPasswordHasher(a.config.Auth.BcryptCost)
	tokens := auth.NewTokenManager(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL, a.config.Auth.Issuer)
	external := a.initExternalStrategy(ctx)

	strategies := []auth.Strategy{auth.NewLocalStrategy(tokens)}
	if external.Available() {
		strategies = append(strategies, external)
	}
	chain := auth.NewChain(strategies...)

	mailer := a.initMailer(ctx)

	taskService := service.NewTaskService(a.repos.tasks, nil)
	authService := service.NewAuthService(a.repos.users, hasher, tokens, chain, external,
		auth.GeneratePassword, a.config.Auth.PasswordLength, nil)
	adminService := service.NewAdminService(a.repos.users, a.repos.tasks, a.repos.audit, hasher, mailer,
		service.AdminOptions{
			PasswordLength:     a.config.Auth.PasswordLength,
			ExposeTempPassword: !a.config.IsProduction(),
		}, nil)
	auditService := service.NewAuditService(a.repos.audit, nil)
	healthService := service.NewHealthService(a.repos.health, mailer.Configured(), nil)

	a.auditor = middleware.NewAuditor(auditService, a.config.Server.AuditBodyLimit)
	a.shutdowns = append(a.shutdowns, a.drainAudit)

	a.router = NewRouter(RouterDeps{
		Tasks:         handlers.NewTaskHandler(taskService),
		Auth:          handlers.NewAuthHandler(authService),
		Admin:         handlers.NewAdminHandler(adminService),
		Health:        handlers.NewHealthHandler(healthService),
		Authenticator: authService,
		Auditor:       a.auditor,
		FrontendURL:   a.config.FrontendURL,
		RateLimitRPM:  a.config.Server.RateLimitRPM,
	})

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadTimeout:       a.config.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.config.Server.WriteTimeout,
	}

	if addr := a.config.Telemetry.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	if a.config.Worker.Enabled {
		a.worker = worker.NewOverdueWorker(a.repos.tasks, a.config.Worker.Interval)
		a.background = append(a.background, a.worker.Start)
	}

	logger.Info("App: Инициализация завершена",
		zap.String("env", a.config.Env),
		zap.String("repository", a.config.Repository.Type),
		zap.Bool("external_login", external.Available()),
		zap.Bool("smtp", mailer.Configured()),
		zap.Bool("worker", a.config.Worker.Enabled))
	return nil
}

func (a *App) initRepositories(ctx context.Context) error {
	switch a.config.Repository.Type {
	case "inmemory":
		storage := inmemory.New()
		a.repos = repositories{
			tasks:  storage.Tasks(),
			users:  storage.Users(),
			audit:  storage.Audit(),
			health: storage,
		}
		logger.Warn("App: Используется хранилище в памяти, данные не сохраняются между запусками")
		return nil

	case "postgres":
		if a.config.Database.AutoMigrate {
			if err := postgres.Migrate(a.config.Database.URL, "up"); err != nil {
				return fmt.Errorf("миграции: %w", err)
			}
		}

		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.Options{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)

		a.repos = repositories{
			tasks:  storage.Tasks(),
			users:  storage.Users(),
			audit:  storage.Audit(),
			health: storage,
		}
		a.background = append(a.background, func(ctx context.Context) {
			telemetry.StartPoolStatsCollector(ctx, storage.AcquiredConns, poolStatsInterval)
		})
		return nil

	default:
		return fmt.Errorf("неизвестный тип хранилища %q", a.config.Repository.Type)
	}
}

// initExternalStrategy настраивает вход через внешнего провайдера. Ошибка discovery не фатальна:
// вход по внешнему токену просто отключается.
func (a *App) initExternalStrategy(ctx context.Context) *auth.ExternalStrategy {
	google := a.config.Auth.Google
	if google.ClientID == "" {
		logger.Info("App: Внешний вход не настроен (GOOGLE_CLIENT_ID пуст)")
		return auth.NewExternalStrategy(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, externalDiscoveryTimeout)
	defer cancel()

	verifier, err := auth.NewOIDCVerifier(ctx, google.IssuerURL, google.ClientID)
	if err != nil {
		logger.Warn("App: Внешний вход отключён", zap.Error(err))
		return auth.NewExternalStrategy(nil)
	}
	return auth.NewExternalStrategy(verifier)
}

func (a *App) initMailer(ctx context.Context) mail.Sender {
	smtp := a.config.SMTP
	sender := mail.New(mail.Config{
		Host:        smtp.Host,
		Port:        smtp.Port,
		Username:    smtp.User,
		Password:    smtp.Password,
		From:        smtp.From,
		UseTLS:      smtp.UseTLS,
		FrontendURL: a.config.FrontendURL,
		Timeout:     smtp.Timeout,
	})

	if smtpSender, ok := sender.(*mail.SMTPSender); ok {
		if err := smtpSender.Probe(ctx); err != nil {
			logger.Warn("App: Письма могут не отправляться", zap.Error(err))
		}
	} else {
		logger.Info("App: SMTP не настроен, письма будут записываться в лог")
	}
	return sender
}

// Run запускает серверы и фоновые задачи и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, job := range a.background {
		g.Go(func() error {
			job(gctx)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP сервер: %w", err)
		}
		return nil
	})

	if a.metricsServer != nil {
		g.Go(func() error {
			logger.Info("Metrics server started", zap.String("addr", a.metricsServer.Addr))
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("сервер метрик: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdownServers()
	})

	return g.Wait()
}

func (a *App) shutdownServers() error {
	logger.Info("App: Остановка серверов...")

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("остановка HTTP сервера: %w", err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("остановка сервера метрик: %w", err))
		}
	}
	return errors.Join(errs...)
}

// drainAudit дожидается фоновых записей аудита до закрытия хранилища.
func (a *App) drainAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("App: Ожидание записей аудита...")
	if err := a.auditor.Wait(ctx); err != nil {
		logger.Warn("App: Не все записи аудита сохранены до остановки", zap.Error(err))
	}
}

// Close освобождает ресурсы в порядке, обратном инициализации.
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}

// Handler отдаёт собранный роутер (используется в тестах).
func (a *App) Handler() http.Handler {
	return a.router
}
