package middleware

import (
	"net/http"
	"strconv"
	"time"

	"taskFlow/internal/telemetry"

	"github.com/go-chi/chi/v5"
)

// Metrics пишет счётчик и гистограмму запросов с шаблоном маршрута chi в метке path.
// Должен стоять внутри роутера chi, иначе шаблон маршрута недоступен.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := newStatusWriter(w)

		next.ServeHTTP(sw, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		telemetry.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
