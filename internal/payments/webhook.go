package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

const notificationTypePayment = "payment"

// ResourceID accepts both numeric and string identifiers from gateway payloads.
type ResourceID string

func (id *ResourceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ResourceID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ResourceID(n.String())
	return nil
}

func (id ResourceID) String() string {
	return string(id)
}

// Notification is the gateway webhook body.
type Notification struct {
	ID     ResourceID `json:"id"`
	Type   string     `json:"type"`
	Action string     `json:"action"`
	Data   struct {
		ID ResourceID `json:"id"`
	} `json:"data"`
}

// EventID identifies the delivery for deduplication. Notifications without their own id fall
// back to the resource id plus action.
func (n Notification) EventID() string {
	if n.ID != "" {
		return n.ID.String()
	}
	if n.Data.ID == "" {
		return ""
	}
	return n.Data.ID.String() + ":" + n.Action
}

// HandleWebhook reconciles the payment named by a gateway notification. Every failure is
// logged. Only gateway and storage failures are returned; notifications that can never
// succeed return nil.
func (r *Reconciler) HandleWebhook(ctx context.Context, n Notification) error {
	if !strings.EqualFold(strings.TrimSpace(n.Type), notificationTypePayment) {
		if r.logg != nil {
			r.logg.Debug(r.logg.WithField(ctx, "notification_type", n.Type), "ignoring non-payment notification")
		}
		return nil
	}
	paymentID := n.Data.ID.String()
	if paymentID == "" {
		r.warn(ctx, "payment notification without payment id", nil)
		return nil
	}
	if r.logg != nil {
		ctx = r.logg.WithField(ctx, "payment_id", paymentID)
	}

	payment, err := r.fetch(ctx, paymentID)
	if err != nil {
		r.warn(ctx, "fetch payment for notification failed", err)
		return err
	}
	orderID, err := uuid.Parse(strings.TrimSpace(payment.ExternalReference))
	if err != nil {
		r.warn(ctx, "payment external reference is not an order id", err)
		return nil
	}
	if _, err := r.apply(ctx, SourceWebhook, orderID, payment.PaymentID(), payment.Status); err != nil {
		r.warn(ctx, "apply payment notification failed", err)
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// VerifySignature checks the x-signature header ("ts=...,v1=...") against the HMAC-SHA256 of
// the manifest "id:{dataID};request-id:{requestID};ts:{ts};".
func VerifySignature(secret, header, requestID, dataID string) bool {
	if secret == "" || header == "" {
		return false
	}
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	var manifest strings.Builder
	if dataID != "" {
		manifest.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		manifest.WriteString("request-id:" + requestID + ";")
	}
	manifest.WriteString("ts:" + ts + ";")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest.String()))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(v1)))
}
