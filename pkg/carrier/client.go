package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

const (
	defaultTimeout              = 5 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("carrier base url is required")

// Client quotes freight with the shipping carrier aggregator.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a carrier client. The token may be empty for sandboxes without auth.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// QuoteRequest describes a single parcel between two postal codes.
type QuoteRequest struct {
	FromPostalCode string
	ToPostalCode   string
	WeightKg       decimal.Decimal
}

// Rate is one carrier service offer.
type Rate struct {
	Service      string
	Name         string
	Price        decimal.Decimal
	DeliveryDays int
}

// Quote asks the carrier for every service able to deliver the parcel. Services the carrier
// flags as unavailable are dropped.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) ([]Rate, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "carrier client not configured")
	}
	if req.ToPostalCode == "" || req.FromPostalCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal codes are required")
	}

	payload := map[string]any{
		"from":    map[string]string{"postal_code": req.FromPostalCode},
		"to":      map[string]string{"postal_code": req.ToPostalCode},
		"package": map[string]any{"weight": req.WeightKg},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal quote request")
	}

	url := fmt.Sprintf("%s/shipment/calculate", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build quote request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute quote request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "quote request failed")
	}

	var apiResp []struct {
		ID           json.Number `json:"id"`
		Name         string      `json:"name"`
		Price        string      `json:"price"`
		DeliveryTime int         `json:"delivery_time"`
		Error        string      `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode quote response")
	}

	rates := make([]Rate, 0, len(apiResp))
	for _, svc := range apiResp {
		if svc.Error != "" || svc.Price == "" {
			continue
		}
		price, err := decimal.NewFromString(svc.Price)
		if err != nil {
			continue
		}
		rates = append(rates, Rate{
			Service:      svc.ID.String(),
			Name:         svc.Name,
			Price:        price,
			DeliveryDays: svc.DeliveryTime,
		})
	}
	return rates, nil
}
