package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskFlow/internal/logger"
	"taskFlow/internal/models/user"
	"taskFlow/internal/service"

	"go.uber.org/zap"
)

const MsgNoToken = "Access denied. No token provided."
const MsgAccessDenied = "Access denied."
const MsgInsufficientPermissions = "Insufficient permissions."

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate проверяет Bearer-токен и кладёт актуального пользователя в контекст.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, MsgNoToken)
				return
			}

			u, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				var bErr *service.BusinessError
				if errors.As(err, &bErr) {
					logger.Debug("AUTH: Токен отклонён",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.String("reason", bErr.Message))
					writeError(w, http.StatusUnauthorized, bErr.Message)
					return
				}

				logger.Error("AUTH: Ошибка проверки токена", err,
					zap.String("request_id", GetRequestID(r.Context())))
				writeError(w, http.StatusInternalServerError, "Server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireRoles пропускает только пользователей с одной из ролей набора.
func RequireRoles(roles user.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, MsgAccessDenied)
				return
			}
			if !roles.Contains(u.Role) {
				logger.Warn("AUTH: Недостаточно прав",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("user_id", u.ID.String()),
					zap.String("role", string(u.Role)))
				writeError(w, http.StatusForbidden, MsgInsufficientPermissions)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
