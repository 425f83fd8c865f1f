package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"taskFlow/internal/logger"
	"taskFlow/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages - сообщения для конкретных пар поле.тег, остальные строятся по тегу.
var fieldMessages = map[string]string{
	"title.required":    "Title is required",
	"title.min":         "Title cannot be empty",
	"name.required":     "Name is required",
	"email.required":    "Valid email is required",
	"email.email":       "Valid email is required",
	"dueDate.required":  "Valid due date is required",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
	"idToken.required":  "ID token is required",
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("Invalid %s", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Invalid %s", fe.Field())
	}
}

// validateStruct проверяет теги validate и возвращает ошибки по полям в формате API.
func validateStruct(s any) []service.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []service.FieldError{{Field: "body", Message: err.Error()}}
	}

	fields := make([]service.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, service.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return fields
}

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeJSON читает тело запроса в dst. При ошибке ответ уже отправлен и возвращается false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondValidation отправляет 400 с ошибками полей.
func respondValidation(w http.ResponseWriter, r *http.Request, fields []service.FieldError, operation string) {
	handleError(w, r, service.NewValidationError(fields...), operation)
}
