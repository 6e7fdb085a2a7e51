package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/opticamarket/marketplace-backend/api/responses"
	pkgAuth "github.com/opticamarket/marketplace-backend/pkg/auth"
	"github.com/opticamarket/marketplace-backend/pkg/config"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
)

// ActiveUserChecker confirms the token subject still exists and is ACTIVE.
type ActiveUserChecker interface {
	EnsureActive(ctx context.Context, id uuid.UUID) error
}

// Auth validates a bearer token and seeds the request context with the actor.
func Auth(cfg config.JWTConfig, users ActiveUserChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			if users != nil {
				if err := users.EnsureActive(ctx, claims.UserID); err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
			}

			ctx = WithActor(ctx, claims.UserID, claims.Role)
			ctx = logg.WithUserID(ctx, claims.UserID.String())
			ctx = logg.WithActorRole(ctx, string(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		if strings.EqualFold(header, "bearer") {
			return "", false
		}
		// Bare tokens are accepted for internal tooling.
		return header, header != ""
	}
	if !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
