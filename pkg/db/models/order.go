package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/enums"
)

// Order is the purchase of one seller group. Multi-seller carts produce one Order per seller.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	SellerID        *uuid.UUID          `gorm:"column:seller_id;type:uuid;index"`
	AddressID       uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	ShippingType    enums.ShippingType  `gorm:"column:shipping_type;type:text;not null"`
	ShippingMethod  *string             `gorm:"column:shipping_method"`
	ShippingCost    decimal.Decimal     `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	ItemsTotal      decimal.Decimal     `gorm:"column:items_total;type:numeric(12,2);not null"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:PENDING;index"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:PENDING"`
	PaymentID       *string             `gorm:"column:payment_id;index"`
	PreferenceID    *string             `gorm:"column:preference_id"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	StockRestoredAt *time.Time          `gorm:"column:stock_restored_at"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID"`
	Address         *Address            `gorm:"foreignKey:AddressID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem snapshots the product name and unit price at purchase time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// LineTotal is unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
