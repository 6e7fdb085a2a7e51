package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable optical item. A nil SellerID marks a platform-owned listing.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU          string          `gorm:"column:sku;not null;uniqueIndex"`
	Name         string          `gorm:"column:name;not null"`
	Description  *string         `gorm:"column:description"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock        int             `gorm:"column:stock;not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	WeightKg     decimal.Decimal `gorm:"column:weight_kg;type:numeric(8,3);not null;default:0"`
	SellerID     *uuid.UUID      `gorm:"column:seller_id;type:uuid;index"`
	CategoryID   *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	ERPProductID *string         `gorm:"column:erp_product_id"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// SellerKey returns the grouping key used when splitting carts; uuid.Nil stands for the platform.
func (p Product) SellerKey() uuid.UUID {
	if p.SellerID == nil {
		return uuid.Nil
	}
	return *p.SellerID
}
