package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const GoogleIssuer = "https://accounts.google.com"

type ExternalClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type ExternalVerifier interface {
	VerifyIDToken(ctx context.Context, rawIDToken string) (*ExternalClaims, error)
}

// OIDCVerifier проверяет ID-токены внешнего провайдера (по умолчанию Google).
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier выполняет discovery провайдера, поэтому ctx должен иметь таймаут.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client id внешнего провайдера не задан: %w", ErrStrategyUnavailable)
	}
	if issuerURL == "" {
		issuerURL = GoogleIssuer
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovery провайдера %s: %w", issuerURL, err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *OIDCVerifier) VerifyIDToken(ctx context.Context, rawIDToken string) (*ExternalClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("проверка ID-токена: %w", err)
	}

	var claims ExternalClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("разбор claims ID-токена: %w", err)
	}
	if claims.Subject == "" {
		claims.Subject = idToken.Subject
	}
	if claims.Name == "" {
		claims.Name = claims.Email
	}
	return &claims, nil
}

// ExternalStrategy проверяет ID-токены внешнего провайдера.
type ExternalStrategy struct {
	verifier ExternalVerifier
}

func NewExternalStrategy(verifier ExternalVerifier) *ExternalStrategy {
	return &ExternalStrategy{verifier: verifier}
}

func (s *ExternalStrategy) Name() string { return string(MethodExternal) }

func (s *ExternalStrategy) Available() bool {
	return s != nil && s.verifier != nil
}

func (s *ExternalStrategy) Verify(ctx context.Context, token string) (*Identity, error) {
	if !s.Available() {
		return nil, ErrStrategyUnavailable
	}

	claims, err := s.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenRejected, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: в токене нет subject", ErrTokenRejected)
	}

	return &Identity{
		Method:        MethodExternal,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}
