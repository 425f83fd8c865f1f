package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskFlow/internal/logger"
	"taskFlow/internal/models/audit"
	"taskFlow/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const DefaultAuditBodyLimit = 64 << 10
const auditWriteTimeout = 5 * time.Second
const healthPath = "/api/health"

type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.Log) error
}

// captureWriter копирует в буфер начало тела ответа, чтобы достать id созданного ресурса.
type captureWriter struct {
	*statusWriter
	body  bytes.Buffer
	limit int
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if room := cw.limit - cw.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		cw.body.Write(b[:room])
	}
	return cw.statusWriter.Write(b)
}

// Auditor пишет записи аудита в фоне, после того как обработчик вернул ответ.
// Ошибки записи не влияют на ответ. Wait дожидается незавершённых записей при остановке.
type Auditor struct {
	recorder  AuditRecorder
	bodyLimit int
	wg        sync.WaitGroup
}

func NewAuditor(recorder AuditRecorder, bodyLimit int) *Auditor {
	if bodyLimit <= 0 {
		bodyLimit = DefaultAuditBodyLimit
	}
	return &Auditor{recorder: recorder, bodyLimit: bodyLimit}
}

func (a *Auditor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || r.URL.Path == healthPath {
			next.ServeHTTP(w, r)
			return
		}

		requestBody := snapshotBody(r, a.bodyLimit)

		st := &auditState{}
		r = r.WithContext(context.WithValue(r.Context(), auditStateKey, st))

		cw := &captureWriter{statusWriter: newStatusWriter(w), limit: a.bodyLimit}
		next.ServeHTTP(cw, r)

		if !qualifies(st, r) {
			telemetry.AuditEntriesTotal.WithLabelValues("skipped").Inc()
			return
		}

		// контекст маршрута chi переиспользуется после возврата, запись собирается здесь
		entry := buildEntry(r, st, cw, requestBody)
		ctx := context.WithoutCancel(r.Context())
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(ctx)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		}

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.record(ctx, entry, fields)
		}()
	})
}

func (a *Auditor) record(ctx context.Context, entry *audit.Log, fields []zap.Field) {
	ctx, cancel := context.WithTimeout(ctx, auditWriteTimeout)
	defer cancel()

	if err := a.recorder.Record(ctx, entry); err != nil {
		logger.Error("AUDIT: Не удалось записать аудит", err, fields...)
	}
}

// Wait ждёт завершения фоновых записей или отмены ctx.
func (a *Auditor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func qualifies(st *auditState, r *http.Request) bool {
	if st.user == nil {
		return false
	}
	return r.Method != http.MethodGet || strings.Contains(r.URL.Path, "/admin/")
}

// snapshotBody читает не больше limit байт и возвращает их в тело запроса для обработчика.
func snapshotBody(r *http.Request, limit int) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	head, err := io.ReadAll(io.LimitReader(r.Body, int64(limit)))
	if err != nil {
		logger.Warn("AUDIT: Не удалось прочитать тело запроса", zap.Error(err))
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	return head
}

func buildEntry(r *http.Request, st *auditState, cw *captureWriter, requestBody []byte) *audit.Log {
	userID := st.user.ID
	entry := &audit.Log{
		UserID:     &userID,
		Action:     audit.ActionFromMethod(r.Method),
		Resource:   audit.ResourceFromPath(r.URL.Path),
		IPAddress:  getIp(r),
		UserAgent:  r.UserAgent(),
		StatusCode: cw.status,
	}

	params := routeParams(r)
	if id, ok := params["id"]; ok && id != "" {
		entry.ResourceID = &id
	} else if r.Method == http.MethodPost && cw.status < 300 {
		entry.ResourceID = createdID(cw.body.Bytes())
	}

	entry.Details = details(requestBody, params)
	return entry
}

func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// createdID достаёт id из ответов вида {"task": {"id": ...}} и {"user": {"id": ...}}.
func createdID(body []byte) *string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	for _, key := range []string{"task", "user"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var resource struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &resource); err == nil && resource.ID != "" {
			return &resource.ID
		}
	}
	return nil
}

func details(requestBody []byte, params map[string]string) string {
	var parts []string

	var data map[string]any
	if len(requestBody) > 0 && json.Unmarshal(requestBody, &data) == nil && len(data) > 0 {
		redact(data)
		if b, err := json.Marshal(data); err == nil {
			parts = append(parts, "Data: "+string(b))
		}
	}

	if len(params) > 0 {
		if b, err := json.Marshal(params); err == nil {
			parts = append(parts, "Params: "+string(b))
		}
	}

	return strings.Join(parts, ", ")
}

// redact скрывает значения всех полей, в имени которых есть password.
func redact(data map[string]any) {
	for key, value := range data {
		if strings.Contains(strings.ToLower(key), "password") {
			data[key] = "[REDACTED]"
			continue
		}
		switch nested := value.(type) {
		case map[string]any:
			redact(nested)
		case []any:
			for _, item := range nested {
				if m, ok := item.(map[string]any); ok {
					redact(m)
				}
			}
		}
	}
}
