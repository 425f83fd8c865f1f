package handlers

import (
	"net/http"
	"strconv"

	"taskFlow/internal/middleware"
	"taskFlow/internal/models/user"
	"taskFlow/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// queryInt читает целый параметр запроса. Пустое значение - 0, что сервис заменяет значением по умолчанию.
func queryInt(r *http.Request, name string, fields *[]service.FieldError) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*fields = append(*fields, service.FieldError{Field: name, Message: "Invalid " + name})
		return 0
	}
	return n
}

func queryUUID(r *http.Request, name string, fields *[]service.FieldError) *uuid.UUID {
	raw := r.URL.Query().Get(name)
	if raw == "" || raw == "all" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		*fields = append(*fields, service.FieldError{Field: name, Message: "Invalid " + name})
		return nil
	}
	return &id
}

// pathID разбирает {id} из пути. При ошибке ответ уже отправлен.
func pathID(w http.ResponseWriter, r *http.Request, operation string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || id == uuid.Nil {
		respondValidation(w, r, []service.FieldError{{Field: "id", Message: "Invalid id"}}, operation)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser достаёт пользователя, установленного middleware.Authenticate.
func currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := middleware.CurrentUser(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, middleware.MsgAccessDenied)
		return nil, false
	}
	return u, true
}
