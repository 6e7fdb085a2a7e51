package erp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

func validToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "erp-token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
}

func TestPushProductRequest(t *testing.T) {
	var captured *http.Request
	var payload map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(strings.NewReader(`{"data":{"id":16235412}}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("http://erp.test/api/v3/", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	pushed, err := client.PushProduct(context.Background(), validToken(), ProductPayload{
		SKU:      "RB-3025",
		Name:     "Aviator",
		Price:    decimal.RequireFromString("499.90"),
		Stock:    4,
		WeightKg: decimal.RequireFromString("0.2"),
	})
	require.NoError(t, err)

	assert.Equal(t, "http://erp.test/api/v3/produtos", captured.URL.String())
	assert.Equal(t, "Bearer erp-token", captured.Header.Get("Authorization"))
	assert.Equal(t, "RB-3025", payload["codigo"])
	assert.Equal(t, "P", payload["tipo"])
	assert.Equal(t, "A", payload["situacao"])
	assert.Equal(t, "16235412", pushed.ID)
}

func TestPushProductRejectsExpiredToken(t *testing.T) {
	client, err := NewClient("http://erp.test")
	require.NoError(t, err)

	expired := &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}
	_, err = client.PushProduct(context.Background(), expired, ProductPayload{SKU: "a", Name: "b"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestPushProductFailureIsDependencyError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"error":{"type":"VALIDATION_ERROR"}}`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("http://erp.test", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.PushProduct(context.Background(), validToken(), ProductPayload{SKU: "a", Name: "b"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Contains(t, err.Error(), "erp product request failed")
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(" ")
	assert.ErrorIs(t, err, errBaseURLRequired)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
