package erp

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
	"golang.org/x/oauth2"

	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

const (
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("erp base url is required")

// Client pushes catalog records to the seller ERP.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// NewClient builds an ERP client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ProductPayload is the catalog record sent to the ERP.
type ProductPayload struct {
	SKU         string          `json:"codigo"`
	Name        string          `json:"nome"`
	Description string          `json:"descricaoCurta,omitempty"`
	Price       decimal.Decimal `json:"preco"`
	Stock       int             `json:"estoque"`
	WeightKg    decimal.Decimal `json:"pesoBruto"`
	CategoryID  string          `json:"categoria,omitempty"`
	Kind        string          `json:"tipo"`
	Status      string          `json:"situacao"`
}

// PushedProduct is the ERP acknowledgement for a created product.
type PushedProduct struct {
	ID string
}

// PushProduct creates the product in the ERP on behalf of the token owner.
func (c *Client) PushProduct(ctx context.Context, token *oauth2.Token, payload ProductPayload) (*PushedProduct, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "erp client not configured")
	}
	if token == nil || !token.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "erp token unavailable")
	}
	if strings.TrimSpace(payload.SKU) == "" || strings.TrimSpace(payload.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "erp product requires sku and name")
	}
	if payload.Kind == "" {
		payload.Kind = "P"
	}
	if payload.Status == "" {
		payload.Status = "A"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal erp product")
	}

	url := fmt.Sprintf("%s/produtos", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build erp product request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	token.SetAuthHeader(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute erp product request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"erp product request failed",
		).WithDetails(map[string]any{"provider_status": resp.StatusCode})
	}

	var apiResp struct {
		Data struct {
			ID json.Number `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode erp product response")
	}
	if apiResp.Data.ID.String() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "erp product response missing id")
	}
	return &PushedProduct{ID: apiResp.Data.ID.String()}, nil
}
