package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/enums"
)

// User represents a buyer, a seller account or a platform admin.
type User struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email            string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name             string           `gorm:"column:name;not null"`
	Role             enums.UserRole   `gorm:"column:role;type:text;not null;default:CUSTOMER"`
	Status           enums.UserStatus `gorm:"column:status;type:text;not null;default:PENDING"`
	BusinessName     *string          `gorm:"column:business_name"`
	TaxID            *string          `gorm:"column:tax_id"`
	PaymentAccountID *string          `gorm:"column:payment_account_id"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
