package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

// Ledger moves product stock. Every call runs on the caller's transaction handle.
type Ledger struct{}

// NewLedger returns a stock ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Decrement removes qty units only when enough stock remains. A concurrent purchase that
// drained the product surfaces as a conflict instead of a negative balance.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "stock ledger requires a transaction")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity below minimum")
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "insufficient stock for product %s", productID).
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"requested":  qty,
			})
	}
	return nil
}

// Restore returns qty units to a product.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "stock ledger requires a transaction")
	}
	if qty <= 0 {
		return nil
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", productID)
	}
	return nil
}

// RestoreItems returns the quantities of every order item.
func (l *Ledger) RestoreItems(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		if err := l.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
