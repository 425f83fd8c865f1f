package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskFlow/internal/models/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет локальные HS256 токены.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, issuer string) *TokenManager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

func (m *TokenManager) Issue(u *user.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := &Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("подпись токена: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неожиданный метод подписи")
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("неверные claims токена")
	}
	return claims, nil
}

// LocalStrategy проверяет токены, выпущенные этим сервисом.
type LocalStrategy struct {
	tokens *TokenManager
}

func NewLocalStrategy(tokens *TokenManager) *LocalStrategy {
	return &LocalStrategy{tokens: tokens}
}

func (s *LocalStrategy) Name() string { return string(MethodLocal) }

func (s *LocalStrategy) Verify(_ context.Context, token string) (*Identity, error) {
	if s.tokens == nil {
		return nil, ErrStrategyUnavailable
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenRejected, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: неверный subject: %w", ErrTokenRejected, err)
	}

	return &Identity{Method: MethodLocal, UserID: id}, nil
}
