package middleware

import (
	"net/http"
	"time"

	"taskFlow/internal/logger"

	"go.uber.org/zap"
)

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := GetRequestID(r.Context())

		logger.HttpRequest(zap.DebugLevel, r, "HTTP_IN: Начало запроса", zap.String("request_id", requestId))

		lw := newStatusWriter(w)
		next.ServeHTTP(lw, r)

		logLevel := zap.InfoLevel
		if lw.status >= 400 && lw.status < 500 {
			logLevel = zap.WarnLevel
		} else if lw.status >= 500 {
			logLevel = zap.ErrorLevel
		}
		logger.HttpRequest(
			logLevel,
			r,
			"HTTP_OUT: Завершение запроса",
			zap.String("request_id", requestId),
			zap.Int("status", lw.status),
			zap.Int("bytes_written", lw.size),
			zap.Duration("ms", time.Since(start)),
		)
	})
}
