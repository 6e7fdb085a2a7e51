package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

// Actor is the authenticated caller of a private route.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

type actorKey struct{}

// WithActor stores the caller on the context.
func WithActor(ctx context.Context, userID uuid.UUID, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, Actor{UserID: userID, Role: role})
}

func actorFrom(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.UserID != uuid.Nil
}

// ActorFromContext returns the caller set by Auth, or an unauthorized error.
func ActorFromContext(ctx context.Context) (uuid.UUID, enums.UserRole, error) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	if !actor.Role.IsValid() {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid role")
	}
	return actor.UserID, actor.Role, nil
}
