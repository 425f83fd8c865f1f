package app

import (
	"net/http"

	"taskFlow/internal/handlers"
	"taskFlow/internal/middleware"
	"taskFlow/internal/models/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterDeps struct {
	Tasks  *handlers.TaskHandler
	Auth   *handlers.AuthHandler
	Admin  *handlers.AdminHandler
	Health *handlers.HealthHandler

	Authenticator middleware.Authenticator
	Auditor       *middleware.Auditor

	FrontendURL  string
	RateLimitRPM int
}

var adminOnly = user.NewRoleSet(user.RoleAdmin)

// NewRouter собирает цепочку middleware и маршруты API.
// Audit стоит до маршрутизации и видит пользователя, установленного Authenticate внутри групп.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(d.RateLimitRPM))
	r.Use(d.Auditor.Middleware)

	authenticate := middleware.Authenticate(d.Authenticator)

	r.Get("/api/health", d.Health.Check)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", d.Auth.Register) // POST /api/auth/register
		r.Post("/login", d.Auth.Login)       // POST /api/auth/login
		r.Post("/google", d.Auth.ExternalLogin)
		r.With(authenticate).Get("/profile", d.Auth.Profile)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", d.Tasks.List)       // GET /api/tasks
		r.Post("/", d.Tasks.Create)    // POST /api/tasks
		r.Get("/stats", d.Tasks.Stats) // GET /api/tasks/stats

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", d.Tasks.Get)       // GET /api/tasks/{id}
			r.Put("/", d.Tasks.Update)    // PUT /api/tasks/{id}
			r.Delete("/", d.Tasks.Delete) // DELETE /api/tasks/{id}
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireRoles(adminOnly))

		r.Post("/users", d.Admin.CreateUser)
		r.Get("/users", d.Admin.ListUsers)
		r.Route("/users/{id}", func(r chi.Router) {
			r.Put("/status", d.Admin.UpdateUserStatus) // PUT /api/admin/users/{id}/status
			r.Put("/role", d.Admin.UpdateUserRole)     // PUT /api/admin/users/{id}/role
			r.Delete("/", d.Admin.DeleteUser)          // DELETE /api/admin/users/{id}
		})
		r.Get("/tasks", d.Admin.ListTasks)
		r.Get("/audit-logs", d.Admin.ListAuditLogs)
		r.Get("/stats", d.Admin.Stats)
	})

	return otelhttp.NewHandler(r, "taskflow")
}
