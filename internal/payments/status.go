package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

// RefreshStatus re-reads the gateway for an order that already carries a payment id. Gateway
// failures are swallowed and the stored order is returned unchanged.
func (r *Reconciler) RefreshStatus(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := r.ownedOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentID == nil || strings.TrimSpace(*order.PaymentID) == "" {
		return order, nil
	}
	if r.logg != nil {
		ctx = r.logg.WithOrderID(ctx, orderID.String())
		ctx = r.logg.WithField(ctx, "payment_id", *order.PaymentID)
	}

	payment, err := r.fetch(ctx, *order.PaymentID)
	if err != nil {
		r.warn(ctx, "payment status refresh failed", err)
		return order, nil
	}
	if status, _ := MapGatewayStatus(payment.Status); status == order.PaymentStatus {
		return order, nil
	}
	return r.apply(ctx, SourcePoll, orderID, payment.PaymentID(), payment.Status)
}

// RecordPayment handles the buyer returning from checkout with a payment id. The payment is
// fetched from the gateway and must reference the order before it is applied.
func (r *Reconciler) RecordPayment(ctx context.Context, buyerID, orderID uuid.UUID, paymentID string) (*models.Order, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if _, err := r.ownedOrder(ctx, buyerID, orderID); err != nil {
		return nil, err
	}

	payment, err := r.fetch(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(payment.ExternalReference) != orderID.String() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment does not belong to order").
			WithDetails(map[string]any{"payment_id": paymentID})
	}
	return r.apply(ctx, SourceRecord, orderID, payment.PaymentID(), payment.Status)
}

func (r *Reconciler) ownedOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := r.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}
