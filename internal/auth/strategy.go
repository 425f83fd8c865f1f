// Package auth содержит проверку bearer-токенов: локальные JWT и внешние
// OpenID Connect ID-токены, а также хеширование и генерацию паролей.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrTokenRejected - стратегия разобрала токен и отвергла его.
	ErrTokenRejected = errors.New("токен отклонён")
	// ErrStrategyUnavailable - стратегия не настроена и не может проверить токен.
	ErrStrategyUnavailable = errors.New("стратегия проверки не настроена")
)

type Method string

const MethodLocal Method = "jwt"
const MethodExternal Method = "oidc"

// Identity - результат успешной проверки токена.
// Для локального токена заполнен UserID, для внешнего - Subject.
type Identity struct {
	Method        Method
	UserID        uuid.UUID
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type Strategy interface {
	Name() string
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Chain перебирает стратегии по порядку и возвращает первую успешную проверку.
type Chain []Strategy

func NewChain(strategies ...Strategy) Chain {
	return Chain(strategies)
}

func (c Chain) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("пустой токен: %w", ErrTokenRejected)
	}

	var errs []error
	for _, s := range c {
		identity, err := s.Verify(ctx, token)
		if err == nil {
			return identity, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}

	if len(errs) == 0 {
		return nil, ErrStrategyUnavailable
	}
	return nil, fmt.Errorf("%w: %w", ErrTokenRejected, errors.Join(errs...))
}
