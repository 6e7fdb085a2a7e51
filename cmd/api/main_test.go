package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	products "github.com/opticamarket/marketplace-backend/internal/products"
	"github.com/opticamarket/marketplace-backend/pkg/config"
)

func TestBuildProductServiceWithoutERP(t *testing.T) {
	cfg := &config.Config{}
	svc, err := buildProductService(context.Background(), cfg, nil, nil, products.NewRepository(nil))
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestBuildPaymentServicesUnconfigured(t *testing.T) {
	svc, err := buildPaymentServices(context.Background(), &config.Config{}, nil, nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, svc.Checkout)
	assert.Nil(t, svc.Status)
	assert.Nil(t, svc.Webhook)
	assert.Nil(t, svc.Guard)
}
