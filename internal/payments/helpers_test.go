package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/internal/inventory"
	"github.com/opticamarket/marketplace-backend/internal/orders"
	"github.com/opticamarket/marketplace-backend/pkg/db"
	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	"github.com/opticamarket/marketplace-backend/pkg/mercadopago"
	"github.com/opticamarket/marketplace-backend/pkg/metrics"
)

var errPaymentMissing = errors.New("payment not found")

type fakeGateway struct {
	payments map[string]*mercadopago.Payment
	err      error
	calls    int

	preference *mercadopago.Preference
	prefErr    error
	prefReqs   []mercadopago.PreferenceRequest
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID string) (*mercadopago.Payment, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	payment, ok := g.payments[paymentID]
	if !ok {
		return nil, errPaymentMissing
	}
	return payment, nil
}

func (g *fakeGateway) CreatePreference(_ context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	g.prefReqs = append(g.prefReqs, req)
	if g.prefErr != nil {
		return nil, g.prefErr
	}
	return g.preference, nil
}

func (g *fakeGateway) set(id, status string, orderID uuid.UUID) {
	if g.payments == nil {
		g.payments = map[string]*mercadopago.Payment{}
	}
	g.payments[id] = &mercadopago.Payment{
		ID:                json.Number(id),
		Status:            status,
		ExternalReference: orderID.String(),
	}
}

type fixture struct {
	db         *gorm.DB
	repo       orders.Repository
	gateway    *fakeGateway
	registry   *prometheus.Registry
	reconciler *Reconciler
	buyer      *models.User
	address    *models.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.AllModels()...))

	buyer := &models.User{
		Email:  "ana@example.com",
		Name:   "Ana Souza",
		Role:   enums.UserRoleCustomer,
		Status: enums.UserStatusActive,
	}
	require.NoError(t, conn.Create(buyer).Error)
	addr := &models.Address{
		UserID:     buyer.ID,
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

	gateway := &fakeGateway{}
	registry := prometheus.NewRegistry()
	repo := orders.NewRepository(conn)
	reconciler, err := NewReconciler(ReconcilerParams{
		Repo:    repo,
		Tx:      db.Wrap(conn),
		Stock:   inventory.NewLedger(),
		Gateway: gateway,
		Metrics: metrics.NewPaymentMetrics(registry),
	})
	require.NoError(t, err)

	return &fixture{
		db:         conn,
		repo:       repo,
		gateway:    gateway,
		registry:   registry,
		reconciler: reconciler,
		buyer:      buyer,
		address:    addr,
	}
}

// order persists a PENDING order for the buyer holding qty units of a product whose
// remaining stock is stock.
func (f *fixture) order(t *testing.T, stock, qty int) (*models.Order, *models.Product) {
	t.Helper()
	p := &models.Product{
		SKU:      "sku-" + uuid.NewString(),
		Name:     "Aviator",
		Price:    decimal.RequireFromString("100.00"),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(p).Error)

	itemsTotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
	shipping := decimal.RequireFromString("15.00")
	o := &models.Order{
		UserID:        f.buyer.ID,
		AddressID:     f.address.ID,
		PaymentMethod: enums.PaymentMethodCard,
		ShippingType:  enums.ShippingTypePlatform,
		ShippingCost:  shipping,
		ItemsTotal:    itemsTotal,
		Total:         itemsTotal.Add(shipping),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
	}
	require.NoError(t, f.db.Omit("Items", "Address").Create(o).Error)
	item := &models.OrderItem{
		OrderID:     o.ID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
	}
	require.NoError(t, f.db.Create(item).Error)
	return o, p
}

func (f *fixture) setStatus(t *testing.T, orderID uuid.UUID, status enums.OrderStatus) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error)
}

func (f *fixture) reload(t *testing.T, orderID uuid.UUID) *models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, f.db.First(&o, "id = ?", orderID).Error)
	return &o
}

func (f *fixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, "id = ?", productID).Error)
	return p.Stock
}

func (f *fixture) counter(t *testing.T, name string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
