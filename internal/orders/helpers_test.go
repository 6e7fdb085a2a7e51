package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/internal/address"
	"github.com/opticamarket/marketplace-backend/internal/inventory"
	product "github.com/opticamarket/marketplace-backend/internal/products"
	"github.com/opticamarket/marketplace-backend/pkg/db"
	"github.com/opticamarket/marketplace-backend/pkg/db/models"
)

type fixture struct {
	db        *gorm.DB
	svc       Service
	repo      Repository
	addresses address.Service
	buyer     uuid.UUID
	address   *models.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.AllModels()...))

	client := db.Wrap(conn)
	addresses, err := address.NewService(address.NewRepository(conn), client)
	require.NoError(t, err)

	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Tx:        client,
		Products:  product.NewRepository(conn),
		Addresses: addresses,
		Stock:     inventory.NewLedger(),
	})
	require.NoError(t, err)

	buyer := uuid.New()
	addr := &models.Address{
		UserID:     buyer,
		Recipient:  "Ana Souza",
		Street:     "Av. Paulista",
		Number:     "1578",
		District:   "Bela Vista",
		City:       "São Paulo",
		State:      "SP",
		PostalCode: "01310200",
		Country:    "BR",
		IsDefault:  true,
	}
	require.NoError(t, conn.Create(addr).Error)

	return &fixture{db: conn, svc: svc, repo: repo, addresses: addresses, buyer: buyer, address: addr}
}

func (f *fixture) product(t *testing.T, seller *uuid.UUID, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		SKU:      "sku-" + uuid.NewString(),
		Name:     "Frame " + uuid.NewString()[:8],
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		SellerID: seller,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	return count
}

func ptr[T any](v T) *T {
	return &v
}
