package service

import (
	"fmt"
)

const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeDuplicateEmail   = "DUPLICATE_EMAIL"
	CodeSelfModification = "SELF_MODIFICATION"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeUnavailable      = "UNAVAILABLE"
)

// BusinessError - ожидаемая ошибка бизнес-логики. Обработчики отдают Message клиенту как есть.
type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Fields  []FieldError
	Err     error
}

// FieldError - ошибка валидации конкретного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(message string) *BusinessError {
	return NewBusinessError(CodeNotFound, message)
}

func NewUnauthorized(message string) *BusinessError {
	return NewBusinessError(CodeUnauthorized, message)
}

func NewForbidden(message string) *BusinessError {
	return NewBusinessError(CodeForbidden, message)
}

func NewSelfModification(message string) *BusinessError {
	return NewBusinessError(CodeSelfModification, message)
}

func NewUnavailable(message string) *BusinessError {
	return NewBusinessError(CodeUnavailable, message)
}

// NewValidationError - общая ошибка валидации со списком полей.
func NewValidationError(fields ...FieldError) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: "Validation failed",
		Details: map[string]any{},
		Fields:  fields,
	}
}

// NewRuleViolation - нарушение бизнес-правила, которое клиент видит отдельным сообщением.
func NewRuleViolation(field, message string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: message,
		Details: map[string]any{"field": field},
	}
}
