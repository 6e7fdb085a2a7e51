package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
)

// Service hands out valid provider tokens, refreshing and persisting them when they expire.
type Service struct {
	repo  Repository
	oauth map[enums.CredentialProvider]*oauth2.Config
	logg  *logger.Logger
}

// Option configures the credentials service.
type Option func(*Service)

// WithOAuthConfig registers the token endpoint used to refresh a provider's credentials.
func WithOAuthConfig(provider enums.CredentialProvider, cfg *oauth2.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.oauth[provider] = cfg
		}
	}
}

func NewService(repo Repository, logg *logger.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("credentials repository required")
	}
	svc := &Service{
		repo:  repo,
		oauth: map[enums.CredentialProvider]*oauth2.Config{},
		logg:  logg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Token returns a valid token for the user's provider credential.
func (s *Service) Token(ctx context.Context, userID uuid.UUID, provider enums.CredentialProvider) (*oauth2.Token, error) {
	cred, err := s.repo.Find(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	current := toToken(cred)
	if current.Valid() {
		return current, nil
	}

	cfg, ok := s.oauth[provider]
	if !ok || current.RefreshToken == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeDependency, "%s credential expired", provider)
	}

	fresh, err := cfg.TokenSource(ctx, current).Token()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh provider token")
	}

	applyToken(cred, fresh)
	if err := s.repo.UpdateTokens(ctx, cred); err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":  userID.String(),
			"provider": provider.String(),
		})
		s.logg.Info(logCtx, "provider token refreshed")
	}
	return fresh, nil
}

func toToken(cred *models.ProviderCredential) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
	}
	if cred.RefreshToken != nil {
		tok.RefreshToken = *cred.RefreshToken
	}
	if cred.ExpiresAt != nil {
		tok.Expiry = *cred.ExpiresAt
	}
	return tok
}

func applyToken(cred *models.ProviderCredential, tok *oauth2.Token) {
	cred.AccessToken = tok.AccessToken
	if tok.TokenType != "" {
		cred.TokenType = tok.TokenType
	}
	if tok.RefreshToken != "" {
		refresh := tok.RefreshToken
		cred.RefreshToken = &refresh
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC().Truncate(time.Second)
		cred.ExpiresAt = &expiry
	}
}
