package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskFlow/internal/config"
	"taskFlow/internal/models/user"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// AppSuite прогоняет HTTP сценарии через полностью собранное приложение на хранилище в памяти.
type AppSuite struct {
	suite.Suite
	app     *App
	handler http.Handler
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	cfg := &config.Config{
		Env:         "test",
		FrontendURL: "http://localhost:3000",
		Server:      config.ServerConfig{Port: "0", ShutdownTimeout: time.Second},
		Logging:     config.LoggingConfig{Level: "error"},
		Repository:  config.RepositoryConfig{Type: "inmemory"},
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret",
			TokenTTL:       time.Hour,
			Issuer:         "taskflow",
			BcryptCost:     4,
			PasswordLength: 12,
		},
		SMTP: config.SMTPConfig{Port: 587, Timeout: time.Second},
	}

	s.app = New(cfg)
	s.Require().NoError(s.app.Init(context.Background()))
	s.handler = s.app.Handler()
}

func (s *AppSuite) TearDownTest() {
	s.app.Close()
}

func (s *AppSuite) do(method, path, token string, body any) (int, map[string]any) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec.Code, decoded
}

func (s *AppSuite) register(name, email string) (string, string) {
	code, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "secret123",
	})
	s.Require().Equal(http.StatusCreated, code, body)
	u := body["user"].(map[string]any)
	return body["token"].(string), u["id"].(string)
}

func (s *AppSuite) promote(email string) {
	ctx := context.Background()
	u, err := s.app.repos.users.GetByEmail(ctx, email)
	s.Require().NoError(err)
	u.Role = user.RoleAdmin
	s.Require().NoError(s.app.repos.users.Update(ctx, u))
}

func (s *AppSuite) TestHealth() {
	code, body := s.do(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, code)
	s.Equal("OK", body["status"])
	services := body["services"].(map[string]any)
	s.Equal("not-configured", services["email"])
}

func (s *AppSuite) TestAuthFlow() {
	token, _ := s.register("Alice", "Alice@Example.com")

	code, body := s.do(http.MethodGet, "/api/auth/profile", token, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("alice@example.com", body["user"].(map[string]any)["email"])

	code, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "alice@example.com", "password": "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Invalid credentials", body["message"])

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "alice@example.com", "password": "secret123",
	})
	s.Equal(http.StatusOK, code)

	code, body = s.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Alice 2", "email": "alice@example.com", "password": "secret123",
	})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("User with this email already exists", body["message"])

	code, body = s.do(http.MethodGet, "/api/tasks", "", nil)
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Access denied. No token provided.", body["message"])

	code, body = s.do(http.MethodGet, "/api/tasks", "garbage", nil)
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Invalid token.", body["message"])

	code, body = s.do(http.MethodPost, "/api/auth/google", "", map[string]any{"idToken": "x"})
	s.Equal(http.StatusServiceUnavailable, code)
	s.Equal("External login is not configured", body["message"])
}

func (s *AppSuite) TestTaskLifecycle() {
	token, _ := s.register("Alice", "alice@example.com")
	otherToken, _ := s.register("Bob", "bob@example.com")

	due := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	code, body := s.do(http.MethodPost, "/api/tasks", token, map[string]any{
		"title": "Write report", "category": "Work", "dueDate": due, "tags": []string{"q1"},
	})
	s.Require().Equal(http.StatusCreated, code, body)
	created := body["task"].(map[string]any)
	id := created["id"].(string)
	s.Equal("pending", created["status"])
	s.Equal("medium", created["priority"])

	code, body = s.do(http.MethodPost, "/api/tasks", token, map[string]any{
		"title": "Old", "category": "Work", "dueDate": "2000-01-01",
	})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Due date cannot be in the past", body["message"])

	code, _ = s.do(http.MethodGet, "/api/tasks/"+id, otherToken, nil)
	s.Equal(http.StatusNotFound, code)

	code, body = s.do(http.MethodPut, "/api/tasks/"+id, token, map[string]any{"status": "completed"})
	s.Require().Equal(http.StatusOK, code, body)
	s.NotNil(body["task"].(map[string]any)["completedAt"])

	code, body = s.do(http.MethodPut, "/api/tasks/"+id, token, map[string]any{"status": "pending"})
	s.Require().Equal(http.StatusOK, code)
	s.Nil(body["task"].(map[string]any)["completedAt"])

	code, body = s.do(http.MethodGet, "/api/tasks?status=all&sortBy=title", token, nil)
	s.Equal(http.StatusOK, code)
	s.Len(body["tasks"], 1)

	code, _ = s.do(http.MethodGet, "/api/tasks?sortBy=owner", token, nil)
	s.Equal(http.StatusBadRequest, code)

	code, body = s.do(http.MethodGet, "/api/tasks?page=9223372036854775807&limit=2", token, nil)
	s.Require().Equal(http.StatusOK, code, body)
	s.Empty(body["tasks"])
	s.Equal(float64(1), body["pagination"].(map[string]any)["total"])

	code, body = s.do(http.MethodGet, "/api/tasks/stats", token, nil)
	s.Equal(http.StatusOK, code)
	s.Equal(float64(1), body["total"])

	code, _ = s.do(http.MethodDelete, "/api/tasks/"+id, otherToken, nil)
	s.Equal(http.StatusNotFound, code)

	code, body = s.do(http.MethodDelete, "/api/tasks/"+id, token, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("Task deleted successfully", body["message"])
}

func (s *AppSuite) TestAdminFlowAndAudit() {
	userToken, _ := s.register("Alice", "alice@example.com")
	adminToken, adminID := s.register("Root", "root@example.com")
	s.promote("root@example.com")

	code, body := s.do(http.MethodGet, "/api/admin/stats", userToken, nil)
	s.Equal(http.StatusForbidden, code)
	s.Equal("Insufficient permissions.", body["message"])

	code, body = s.do(http.MethodPost, "/api/admin/users", adminToken, map[string]any{
		"name": "Carol", "email": "carol@example.com", "role": "user",
	})
	s.Require().Equal(http.StatusCreated, code, body)
	s.Equal("not-configured", body["emailStatus"])
	tempPassword, _ := body["tempPassword"].(string)
	s.Len(tempPassword, 12)
	carolID := body["user"].(map[string]any)["id"].(string)

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "carol@example.com", "password": tempPassword,
	})
	s.Equal(http.StatusOK, code)

	code, body = s.do(http.MethodPut, "/api/admin/users/"+adminID+"/status", adminToken, map[string]any{"status": "inactive"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Cannot modify your own account status", body["message"])

	code, _ = s.do(http.MethodPut, "/api/admin/users/"+carolID+"/status", adminToken, map[string]any{"status": "inactive"})
	s.Equal(http.StatusOK, code)

	code, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "carol@example.com", "password": tempPassword,
	})
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Account is inactive.", body["message"])

	code, body = s.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(float64(3), body["totalUsers"])
	s.Equal(float64(1), body["inactiveUsers"])

	// записи аудита пишутся в фоне после ответа
	s.Require().NoError(s.app.auditor.Wait(context.Background()))

	code, body = s.do(http.MethodGet, "/api/admin/audit-logs?resource=User", adminToken, nil)
	s.Require().Equal(http.StatusOK, code)
	logs := body["logs"].([]any)
	s.Require().NotEmpty(logs)

	actions := map[string]bool{}
	for _, raw := range logs {
		entry := raw.(map[string]any)
		actions[entry["action"].(string)] = true
		s.NotContains(entry["details"], "secret123")
	}
	s.True(actions["CREATE"], "создание пользователя записано в аудит")
	s.True(actions["UPDATE"], "смена статуса записана в аудит")

	code, _ = s.do(http.MethodDelete, "/api/admin/users/"+carolID, adminToken, nil)
	s.Equal(http.StatusOK, code)

	code, body = s.do(http.MethodDelete, "/api/admin/users/"+carolID, adminToken, nil)
	s.Equal(http.StatusNotFound, code)
	s.Equal("User not found", body["message"])
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	a := New(&config.Config{
		Repository: config.RepositoryConfig{Type: "inmemory"},
		Auth:       config.AuthConfig{JWTSecret: "x", BcryptCost: 4, PasswordLength: 12},
		Server:     config.ServerConfig{ShutdownTimeout: time.Second},
		Logging:    config.LoggingConfig{Level: "error"},
	})
	require.NoError(t, a.Init(context.Background()))
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
