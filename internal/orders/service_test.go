package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/pagination"
)

func (f *fixture) order(t *testing.T, seller *uuid.UUID) models.Order {
	t.Helper()
	p := f.product(t, seller, "10.00", 10)
	orders, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCard,
		Shipping:      platformShipping("0"),
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	return orders[0]
}

func (f *fixture) forceStatus(t *testing.T, id uuid.UUID, status enums.OrderStatus) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", id).UpdateColumn("status", status).Error)
}

func TestTransitionBySellerOwner(t *testing.T) {
	f := newFixture(t)
	seller := uuid.New()
	order := f.order(t, &seller)
	f.forceStatus(t, order.ID, enums.OrderStatusPaid)

	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:   order.ID,
		Status:    enums.OrderStatusShipped,
		ActorID:   seller,
		ActorRole: enums.UserRoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	require.Len(t, updated.Items, 1)
	require.NotNil(t, updated.Address)
	assert.Equal(t, f.address.ID, updated.Address.ID)
}

func TestTransitionRejectsIllegalMoveNamingBothStatuses(t *testing.T) {
	f := newFixture(t)
	seller := uuid.New()
	order := f.order(t, &seller)
	f.forceStatus(t, order.ID, enums.OrderStatusShipped)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:   order.ID,
		Status:    enums.OrderStatusPaid,
		ActorID:   seller,
		ActorRole: enums.UserRoleSeller,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.Contains(t, err.Error(), "SHIPPED")
	assert.Contains(t, err.Error(), "PAID")

	stored, err := f.repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, stored.Status)
}

func TestTransitionOwnershipRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := uuid.New()
	order := f.order(t, &seller)

	_, err := f.svc.Transition(ctx, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusCancelled, ActorID: uuid.New(), ActorRole: enums.UserRoleSeller})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Transition(ctx, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusCancelled, ActorID: f.buyer, ActorRole: enums.UserRoleCustomer})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	platform := f.order(t, nil)
	_, err = f.svc.Transition(ctx, TransitionInput{OrderID: platform.ID, Status: enums.OrderStatusCancelled, ActorID: seller, ActorRole: enums.UserRoleSeller})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	updated, err := f.svc.Transition(ctx, TransitionInput{OrderID: platform.ID, Status: enums.OrderStatusCancelled, ActorID: uuid.New(), ActorRole: enums.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)
	assert.NotNil(t, updated.CancelledAt)

	_, err = f.svc.Transition(ctx, TransitionInput{OrderID: uuid.New(), Status: enums.OrderStatusCancelled, ActorID: seller, ActorRole: enums.UserRoleAdmin})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestSellerCancellationLeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	seller := uuid.New()
	p := f.product(t, &seller, "10.00", 4)
	orders, err := f.svc.Create(context.Background(), CreateOrderInput{
		BuyerID:       f.buyer,
		AddressID:     f.address.ID,
		Items:         []CartItem{{ProductID: p.ID, Quantity: 3}},
		PaymentMethod: enums.PaymentMethodCard,
		Shipping:      platformShipping("0"),
	})
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), TransitionInput{
		OrderID:   orders[0].ID,
		Status:    enums.OrderStatusCancelled,
		ActorID:   seller,
		ActorRole: enums.UserRoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.stock(t, p.ID))
}

func TestGetForBuyer(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, nil)

	found, err := f.svc.GetForBuyer(context.Background(), f.buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.NotNil(t, found.Address)

	_, err = f.svc.GetForBuyer(context.Background(), uuid.New(), order.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.GetForBuyer(context.Background(), f.buyer, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := uuid.New()
	first := f.order(t, &seller)
	f.order(t, &seller)
	f.order(t, nil)
	f.forceStatus(t, first.ID, enums.OrderStatusPaid)

	mine, err := f.svc.ListForBuyer(ctx, f.buyer, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 3)

	others, err := f.svc.ListForBuyer(ctx, uuid.New(), pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, others.Items)

	sellerPage, err := f.svc.ListForSeller(ctx, seller, pagination.Params{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, sellerPage.Items, 1)
	assert.NotEmpty(t, sellerPage.NextCursor)

	paid := enums.OrderStatusPaid
	paidPage, err := f.svc.ListAll(ctx, &paid, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, paidPage.Items, 1)
	assert.Equal(t, first.ID, paidPage.Items[0].ID)

	bogus := enums.OrderStatus("LOST")
	_, err = f.svc.ListAll(ctx, &bogus, pagination.Params{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestFromModelIncludesLineTotals(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, nil)
	detail, err := f.repo.FindDetail(context.Background(), order.ID)
	require.NoError(t, err)

	dto := FromModel(detail)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "10.00", dto.Items[0].LineTotal.StringFixed(2))
	require.NotNil(t, dto.Address)
	assert.Equal(t, "01310200", dto.Address.PostalCode)
	assert.Nil(t, FromModel(nil))
}
