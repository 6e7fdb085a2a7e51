package redis

import "strings"

// Every key lives under one namespace so the cache can be shared with other services.
const keyNamespace = "optica"

const (
	idempotencyPrefix = "idempotency"
	webhookPrefix     = "webhook"
	shippingPrefix    = "shipping_quote"
)

// IdempotencyKey names the stored response for a client Idempotency-Key.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

// WebhookEventKey names the dedup marker for a gateway notification.
func (c *Client) WebhookEventKey(provider, eventID string) string {
	return buildKey(webhookPrefix, provider, eventID)
}

// ShippingQuoteKey names a cached carrier quote. Blank parts are dropped.
func (c *Client) ShippingQuoteKey(parts ...string) string {
	return buildKey(append([]string{shippingPrefix}, parts...)...)
}

func buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
