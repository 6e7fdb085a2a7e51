package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	"github.com/opticamarket/marketplace-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders and order_items tables.
// Lookups return a typed NotFound error instead of a nil row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, paymentID *string, status enums.PaymentStatus) error
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ClaimStockRestore(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	SetPreference(ctx context.Context, id uuid.UUID, preferenceID string) error
}

// ListFilters narrows order listings. Nil fields are ignored.
type ListFilters struct {
	UserID   *uuid.UUID
	SellerID *uuid.UUID
	Status   *enums.OrderStatus
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type addressFinder interface {
	FindForOwner(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

// StockDecrementer removes purchased units inside the order-creation transaction.
type StockDecrementer interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}
