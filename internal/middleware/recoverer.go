package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"taskFlow/internal/logger"

	"go.uber.org/zap"
)

// Recoverer перехватывает панику обработчика и отвечает 500 без деталей.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.Error("HTTP: Паника в обработчике", fmt.Errorf("%v", rec),
				zap.String("request_id", GetRequestID(r.Context())),
				zap.String("path", r.URL.Path),
				zap.ByteString("stack", debug.Stack()))

			writeError(w, http.StatusInternalServerError, "Server error")
		}()

		next.ServeHTTP(w, r)
	})
}
