package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opticamarket/marketplace-backend/api/responses"
	"github.com/opticamarket/marketplace-backend/internal/payments"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
)

const maxNotificationBytes = 1 << 16

type PaymentNotificationHandler interface {
	HandleWebhook(ctx context.Context, n payments.Notification) error
}

type NotificationGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// PaymentWebhook receives gateway payment notifications. The gateway always gets a 200 so it
// stops retrying deliveries this service cannot use; failed processing releases the guard so
// a later redelivery is handled.
func PaymentWebhook(svc PaymentNotificationHandler, guard NotificationGuard, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			warn(ctx, logg, "payment webhook received without reconciler", nil)
			responses.WriteSuccess(w, nil)
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
		if err != nil {
			warn(ctx, logg, "read payment notification body", err)
			responses.WriteSuccess(w, nil)
			return
		}
		n := decodeNotification(payload, r)

		if secret != "" {
			if !payments.VerifySignature(secret, r.Header.Get("x-signature"), r.Header.Get("x-request-id"), n.Data.ID.String()) {
				warn(ctx, logg, "payment notification signature mismatch", nil)
				responses.WriteSuccess(w, nil)
				return
			}
		}

		eventID := n.EventID()
		if guard != nil && eventID != "" {
			seen, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				warn(ctx, logg, "payment notification guard unavailable", err)
			} else if seen {
				if logg != nil {
					logg.Debug(logg.WithField(ctx, "event_id", eventID), "duplicate payment notification")
				}
				responses.WriteSuccess(w, nil)
				return
			}
		}

		if err := svc.HandleWebhook(ctx, n); err != nil {
			// Only a retryable failure frees the event id for the gateway's redelivery.
			if guard != nil && eventID != "" && pkgerrors.Retryable(err) {
				_ = guard.Delete(ctx, eventID)
			}
			responses.WriteSuccess(w, nil)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("payment notification %s processed", eventID))
		}
		responses.WriteSuccess(w, nil)
	}
}

// decodeNotification reads the JSON body and falls back to the legacy query string form
// (?type=payment&data.id=123).
func decodeNotification(payload []byte, r *http.Request) payments.Notification {
	var n payments.Notification
	if len(strings.TrimSpace(string(payload))) > 0 {
		_ = json.Unmarshal(payload, &n)
	}
	q := r.URL.Query()
	if n.Type == "" {
		n.Type = strings.TrimSpace(q.Get("type"))
		if n.Type == "" {
			n.Type = strings.TrimSpace(q.Get("topic"))
		}
	}
	if n.Data.ID == "" {
		id := strings.TrimSpace(q.Get("data.id"))
		if id == "" {
			id = strings.TrimSpace(q.Get("id"))
		}
		n.Data.ID = payments.ResourceID(id)
	}
	return n
}

func warn(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		return
	}
	if err != nil {
		ctx = logg.WithField(ctx, "error", err.Error())
	}
	logg.Warn(ctx, msg)
}
