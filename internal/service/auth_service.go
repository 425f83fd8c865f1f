package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskFlow/internal/auth"
	"taskFlow/internal/logger"
	"taskFlow/internal/models/user"
	rep "taskFlow/internal/repository"

	"go.uber.org/zap"
)

const (
	MsgInvalidToken        = "Invalid token."
	MsgUserNotFound        = "User not found."
	MsgAccountInactive     = "Account is inactive."
	msgInvalidCredentials  = "Invalid credentials"
	msgDuplicateEmail      = "User with this email already exists"
	msgExternalUnavailable = "External login is not configured"
)

type AuthService struct {
	users     UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	verifier  TokenVerifier
	external  ExternalLogin
	generate  PasswordGenerator
	pwdLength int
	clock     Clock
}

func NewAuthService(
	users UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	verifier TokenVerifier,
	external ExternalLogin,
	generate PasswordGenerator,
	pwdLength int,
	clock Clock,
) *AuthService {
	if generate == nil {
		generate = auth.GeneratePassword
	}
	if pwdLength <= 0 {
		pwdLength = auth.DefaultPasswordLength
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		verifier:  verifier,
		external:  external,
		generate:  generate,
		pwdLength: pwdLength,
		clock:     clock,
	}
}

type AuthResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *user.User `json:"user"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) issue(u *user.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("выпуск токена: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// touchLogin фиксирует время входа. Ошибка не мешает входу.
func (s *AuthService) touchLogin(ctx context.Context, u *user.User) {
	now := s.clock.now()
	u.LastLogin = &now
	if err := s.users.Update(ctx, u); err != nil {
		logger.Warn("Service: Не удалось обновить lastLogin",
			zap.String("user_id", u.ID.String()), zap.Error(err))
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	now := s.clock.now()
	u := &user.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         user.RoleUser,
		Status:       user.StatusActive,
		LastLogin:    &now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, rep.ErrDuplicate) {
			return nil, NewBusinessError(CodeDuplicateEmail, msgDuplicateEmail)
		}
		return nil, fmt.Errorf("регистрация пользователя: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован", zap.String("user_id", u.ID.String()))
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewUnauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if u.PasswordHash == "" || !s.hasher.Verify(password, u.PasswordHash) {
		return nil, NewUnauthorized(msgInvalidCredentials)
	}
	if !u.IsActive() {
		return nil, NewUnauthorized(MsgAccountInactive)
	}

	s.touchLogin(ctx, u)
	return s.issue(u)
}

// LoginWithExternal входит по ID-токену внешнего провайдера. Пользователь ищется по
// внешнему идентификатору, затем по email (с привязкой), иначе создаётся новый.
func (s *AuthService) LoginWithExternal(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.external == nil || !s.external.Available() {
		return nil, NewUnavailable(msgExternalUnavailable)
	}

	identity, err := s.external.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, auth.ErrStrategyUnavailable) {
			return nil, NewUnavailable(msgExternalUnavailable)
		}
		logger.Info("Service: Внешний токен отклонён", zap.Error(err))
		return nil, NewUnauthorized(MsgInvalidToken)
	}

	u, err := s.resolveExternal(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, NewUnauthorized(MsgAccountInactive)
	}

	s.touchLogin(ctx, u)
	return s.issue(u)
}

func (s *AuthService) resolveExternal(ctx context.Context, identity *auth.Identity) (*user.User, error) {
	u, err := s.users.GetByExternalID(ctx, identity.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, rep.ErrNotFound) {
		return nil, fmt.Errorf("поиск по внешнему идентификатору: %w", err)
	}

	email := NormalizeEmail(identity.Email)
	if email == "" {
		return nil, NewUnauthorized(MsgInvalidToken)
	}

	u, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		subject := identity.Subject
		u.ExternalID = &subject
		if err := s.users.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("привязка внешнего идентификатора: %w", err)
		}
		logger.Info("Service: Внешний аккаунт привязан", zap.String("user_id", u.ID.String()))
		return u, nil
	case !errors.Is(err, rep.ErrNotFound):
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	password, err := s.generate(s.pwdLength)
	if err != nil {
		return nil, fmt.Errorf("генерация пароля: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = email
	}
	subject := identity.Subject
	u = &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		Status:       user.StatusActive,
		ExternalID:   &subject,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, rep.ErrDuplicate) {
			return nil, NewBusinessError(CodeDuplicateEmail, msgDuplicateEmail)
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	logger.Info("Service: Пользователь создан через внешний вход", zap.String("user_id", u.ID.String()))
	return u, nil
}

// Authenticate проверяет bearer-токен цепочкой стратегий и возвращает активного пользователя.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*user.User, error) {
	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		logger.Debug("Service: Токен не прошёл проверку", zap.Error(err))
		return nil, NewUnauthorized(MsgInvalidToken)
	}

	var u *user.User
	switch identity.Method {
	case auth.MethodExternal:
		u, err = s.users.GetByExternalID(ctx, identity.Subject)
	default:
		u, err = s.users.GetByID(ctx, identity.UserID)
	}
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewUnauthorized(MsgUserNotFound)
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if !u.IsActive() {
		return nil, NewUnauthorized(MsgAccountInactive)
	}
	return u, nil
}
