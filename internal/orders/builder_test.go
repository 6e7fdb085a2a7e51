package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticamarket/marketplace-backend/internal/inventory"
	product "github.com/opticamarket/marketplace-backend/internal/products"
	"github.com/opticamarket/marketplace-backend/pkg/db"
	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

func platformShipping(cost string) ShippingSelection {
	return ShippingSelection{Type: enums.ShippingTypePlatform, Method: ptr("PAC"), Cost: decimal.RequireFromString(cost)}
}

func TestCreateSingleSellerOrder(t *testing.T) {
	f := newFixture(t)
	seller := uuid.New()
	p := f.product(t, &seller, "10.00", 5)

	orders, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      ShippingSelection{Type: enums.ShippingTypeSeller},
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.True(t, order.ItemsTotal.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, order.Total.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, order.ShippingCost.IsZero())
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	require.NotNil(t, order.SellerID)
	assert.Equal(t, seller, *order.SellerID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, p.Name, order.Items[0].ProductName)
	assert.NotEqual(t, uuid.Nil, order.Items[0].ID)
	assert.Equal(t, 3, f.stock(t, p.ID))

	stored, err := f.repo.FindDetail(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}

func TestCreateSplitsBySellerInDiscoveryOrder(t *testing.T) {
	f := newFixture(t)
	sellerA := uuid.New()
	sellerB := uuid.New()
	a := f.product(t, &sellerA, "100.00", 10)
	b := f.product(t, &sellerB, "50.00", 10)
	platform := f.product(t, nil, "5.00", 10)

	orders, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:   f.buyer,
		AddressID: f.address.ID,
		Items: []CartItem{
			{ProductID: b.ID, Quantity: 1},
			{ProductID: a.ID, Quantity: 1},
			{ProductID: platform.ID, Quantity: 2},
		},
		PaymentMethod: enums.PaymentMethodCard,
		Shipping:      platformShipping("30.00"),
	})
	require.NoError(t, err)
	require.Len(t, orders, 3)

	require.NotNil(t, orders[0].SellerID)
	assert.Equal(t, sellerB, *orders[0].SellerID)
	require.NotNil(t, orders[1].SellerID)
	assert.Equal(t, sellerA, *orders[1].SellerID)
	assert.Nil(t, orders[2].SellerID)

	for _, order := range orders {
		assert.True(t, order.ShippingCost.Equal(decimal.RequireFromString("10.00")))
	}
	assert.True(t, orders[0].Total.Equal(decimal.RequireFromString("60.00")))
	assert.True(t, orders[1].Total.Equal(decimal.RequireFromString("110.00")))
	assert.True(t, orders[2].Total.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, int64(3), f.countOrders(t))
}

func TestCreateRejectsEmptyCartAndBadQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "cart is empty")

	p := f.product(t, nil, "10.00", 5)
	_, err = f.svc.Create(ctx, CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 0}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "quantity below minimum")
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestCreateAddressChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, nil, "10.00", 5)

	_, err := f.svc.Create(ctx, CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     uuid.New(),
		Items:         []CartItem{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Create(ctx, CreateOrderInput{
		BuyerID:       uuid.New(),
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
	assert.Zero(t, f.countOrders(t))
}

func TestCreateMissingProductCreatesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, nil, "10.00", 5)
	missing := uuid.New()

	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 1}, {ProductID: missing, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{missing.String()}, details["product_ids"])

	assert.Zero(t, f.countOrders(t))
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, nil, "10.00", 3)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error)

	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, map[string]any{"product_ids": []string{p.ID.String()}}, typed.Details())
	assert.Zero(t, f.countOrders(t))
	assert.Equal(t, 3, f.stock(t, p.ID))
}

func TestCreateInsufficientStockNamesProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, nil, "10.00", 1)

	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Contains(t, err.Error(), p.Name)
	assert.Zero(t, f.countOrders(t))
	assert.Equal(t, 1, f.stock(t, p.ID))
}

func TestCreateMergesDuplicateLinesBeforeStockCheck(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, nil, "10.00", 3)

	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 2}, {ProductID: p.ID, Quantity: 2}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, 3, f.stock(t, p.ID))

	orders, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 1}, {ProductID: p.ID, Quantity: 2}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	require.NoError(t, err)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 3, orders[0].Items[0].Quantity)
	assert.Equal(t, 0, f.stock(t, p.ID))
}

func TestCreateRollsBackWhenStockDrainedConcurrently(t *testing.T) {
	f := newFixture(t)
	sellerA := uuid.New()
	sellerB := uuid.New()
	a := f.product(t, &sellerA, "10.00", 5)
	b := f.product(t, &sellerB, "10.00", 5)

	loader := racingLoader{
		inner: product.NewRepository(f.db),
		after: func() {
			require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", b.ID).UpdateColumn("stock", 1).Error)
		},
	}
	svc, err := NewService(ServiceParams{
		Repo:      f.repo,
		Tx:        db.Wrap(f.db),
		Products:  loader,
		Addresses: f.addresses,
		Stock:     inventory.NewLedger(),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 2}},
		PaymentMethod: enums.PaymentMethodPix,
		Shipping:      platformShipping("0"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Zero(t, f.countOrders(t))
	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))
}

type racingLoader struct {
	inner productLoader
	after func()
}

func (r racingLoader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	rows, err := r.inner.FindByIDs(ctx, ids)
	r.after()
	return rows, err
}

func TestCreateValidatesEnums(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, nil, "10.00", 5)

	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: "CASH",
		Shipping:      platformShipping("0"),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestSplitShipping(t *testing.T) {
	shares := splitShipping(platformShipping("10.00"), 3)
	require.Len(t, shares, 3)
	assert.Equal(t, "3.34", shares[0].StringFixed(2))
	assert.Equal(t, "3.33", shares[1].StringFixed(2))
	assert.Equal(t, "3.33", shares[2].StringFixed(2))

	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("10.00")))

	seller := splitShipping(ShippingSelection{Type: enums.ShippingTypeSeller, Cost: decimal.RequireFromString("99")}, 2)
	assert.True(t, seller[0].IsZero())
	assert.True(t, seller[1].IsZero())

	assert.Empty(t, splitShipping(platformShipping("5"), 0))
}

func TestMergeCartKeepsFirstSeenOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	merged, err := mergeCart([]CartItem{{ProductID: a, Quantity: 1}, {ProductID: b, Quantity: 2}, {ProductID: a, Quantity: 4}})
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, a, merged[0].ProductID)
	assert.Equal(t, 5, merged[0].Quantity)
	assert.Equal(t, b, merged[1].ProductID)
}
