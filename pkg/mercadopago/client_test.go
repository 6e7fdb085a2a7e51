package mercadopago

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

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient("  ")
	require.ErrorIs(t, err, errAccessTokenRequired)
}

func TestCreatePreferenceRequest(t *testing.T) {
	var captured *http.Request
	var payload map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		return jsonResponse(http.StatusCreated, `{"id":"pref_123","init_point":"https://pay.test/init","sandbox_init_point":"https://sandbox.pay.test/init"}`), nil
	})

	client, err := NewClient("tok", WithBaseURL("http://gateway.test/"), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items: []PreferenceItem{{
			ID:         "sku-1",
			Title:      "Aviator frame",
			Quantity:   2,
			UnitPrice:  decimal.RequireFromString("10.00"),
			CurrencyID: "BRL",
		}},
		Payer:             Payer{Email: "buyer@example.com"},
		ExternalReference: "order-1",
		BackURLs:          &BackURLs{Success: "https://shop.test/ok"},
		AutoReturn:        "approved",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://gateway.test/checkout/preferences", captured.URL.String())
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "Bearer tok", captured.Header.Get("Authorization"))
	assert.Equal(t, "order-1", captured.Header.Get("X-Idempotency-Key"))
	assert.Equal(t, "order-1", payload["external_reference"])
	assert.Equal(t, "pref_123", pref.ID)
	assert.Equal(t, "https://pay.test/init", pref.InitPoint)
}

func TestCreatePreferenceValidatesInput(t *testing.T) {
	client, err := NewClient("tok")
	require.NoError(t, err)

	_, err = client.CreatePreference(context.Background(), PreferenceRequest{ExternalReference: "order-1"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = client.CreatePreference(context.Background(), PreferenceRequest{Items: []PreferenceItem{{ID: "x", Quantity: 1}}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestGetPaymentRequest(t *testing.T) {
	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return jsonResponse(http.StatusOK, `{"id":987654,"status":"approved","status_detail":"accredited","external_reference":"order-1"}`), nil
	})

	client, err := NewClient("tok", WithBaseURL("http://gateway.test"), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	payment, err := client.GetPayment(context.Background(), "987654")
	require.NoError(t, err)
	assert.Equal(t, "http://gateway.test/v1/payments/987654", capturedURL)
	assert.Equal(t, "987654", payment.PaymentID())
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "order-1", payment.ExternalReference)
}

func TestGatewayErrorCarriesProviderMessage(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"message":"invalid unit_price","status":400}`), nil
	})

	client, err := NewClient("tok", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.GetPayment(context.Background(), "1")
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "invalid unit_price", details["provider_message"])
	assert.Equal(t, http.StatusBadRequest, details["provider_status"])
}

func TestNilClientIsDependencyError(t *testing.T) {
	var client *Client
	_, err := client.GetPayment(context.Background(), "1")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
