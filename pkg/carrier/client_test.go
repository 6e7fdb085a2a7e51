package carrier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

func TestQuoteRequest(t *testing.T) {
	var captured *http.Request
	var payload map[string]any
	respBody := `[
		{"id":1,"name":"PAC","price":"22.50","delivery_time":7},
		{"id":2,"name":"SEDEX","price":"41.10","delivery_time":2},
		{"id":3,"name":"Mini","error":"Peso excede o limite"}
	]`

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("http://carrier.test/api/v2/me", "tok", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	rates, err := client.Quote(context.Background(), QuoteRequest{
		FromPostalCode: "01001000",
		ToPostalCode:   "20040002",
		WeightKg:       decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)

	assert.Equal(t, "http://carrier.test/api/v2/me/shipment/calculate", captured.URL.String())
	assert.Equal(t, "Bearer tok", captured.Header.Get("Authorization"))
	to, ok := payload["to"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "20040002", to["postal_code"])

	require.Len(t, rates, 2)
	assert.Equal(t, "1", rates[0].Service)
	assert.True(t, rates[0].Price.Equal(decimal.RequireFromString("22.50")))
	assert.Equal(t, 2, rates[1].DeliveryDays)
}

func TestQuoteFailureIsDependencyError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("upstream down")),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("http://carrier.test", "", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.Quote(context.Background(), QuoteRequest{FromPostalCode: "1", ToPostalCode: "2"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestQuoteRequiresPostalCodes(t *testing.T) {
	client, err := NewClient("http://carrier.test", "")
	require.NoError(t, err)

	_, err = client.Quote(context.Background(), QuoteRequest{FromPostalCode: "01001000"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
