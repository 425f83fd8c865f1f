package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type clientInfo struct {
	count   int
	resetAt time.Time
}

// RateLimit ограничивает число запросов с одного IP за минуту. rpm <= 0 отключает ограничение.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	if rpm <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	clients := make(map[string]*clientInfo)
	var mtx sync.Mutex
	window := time.Minute
	nextSweep := time.Now().Add(window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIp(r)
			now := time.Now()

			mtx.Lock()

			// устаревшие записи чистятся не чаще раза в окно
			if now.After(nextSweep) {
				for key, info := range clients {
					if now.After(info.resetAt) {
						delete(clients, key)
					}
				}
				nextSweep = now.Add(window)
			}

			info, exists := clients[ip]
			switch {
			case !exists:
				info = &clientInfo{count: 1, resetAt: now.Add(window)}
				clients[ip] = info
			case now.After(info.resetAt):
				info.count = 1
				info.resetAt = now.Add(window)
			case info.count >= rpm:
				retryAfter := int(info.resetAt.Sub(now).Seconds()) + 1
				mtx.Unlock()

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success":     false,
					"message":     "Too many requests, please try again later.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			default:
				info.count++
			}

			remaining := rpm - info.count
			resetUnix := info.resetAt.Unix()

			mtx.Unlock()

			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetUnix, 10))

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
