package middleware

import (
	"context"

	"taskFlow/internal/models/user"
)

const userKey contextKey = "user"
const auditStateKey contextKey = "audit_state"

func WithUser(ctx context.Context, u *user.User) context.Context {
	if st := getAuditState(ctx); st != nil {
		st.user = u
	}
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser возвращает пользователя, установленного Authenticate.
func CurrentUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	return u, ok && u != nil
}

// auditState живёт в контексте запроса до Authenticate, чтобы Audit
// после обработчика увидел пользователя, установленного ниже по цепочке.
type auditState struct {
	user *user.User
}

func getAuditState(ctx context.Context) *auditState {
	st, _ := ctx.Value(auditStateKey).(*auditState)
	return st
}
