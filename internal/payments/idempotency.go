package payments

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type notificationStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(provider, eventID string) string
}

// NotificationGuard remembers processed gateway notifications so redeliveries skip the
// gateway round trip.
type NotificationGuard struct {
	store notificationStore
	ttl   time.Duration
	scope string
}

func NewNotificationGuard(store notificationStore, ttl time.Duration, scope string) (*NotificationGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("provider scope is required")
	}
	return &NotificationGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark reports whether the notification was already seen, marking it otherwise.
func (g *NotificationGuard) CheckAndMark(ctx context.Context, notificationID string) (bool, error) {
	if notificationID == "" {
		return false, errors.New("notification id is required")
	}
	key := g.store.WebhookEventKey(g.scope, notificationID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete forgets a notification so a failed attempt can be retried.
func (g *NotificationGuard) Delete(ctx context.Context, notificationID string) error {
	if notificationID == "" {
		return errors.New("notification id is required")
	}
	return g.store.Del(ctx, g.store.WebhookEventKey(g.scope, notificationID))
}
