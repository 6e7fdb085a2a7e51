package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/enums"
)

// ProviderCredential stores the OAuth tokens a user holds with an external provider.
type ProviderCredential struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID                `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_provider_credentials_user_provider"`
	Provider     enums.CredentialProvider `gorm:"column:provider;type:text;not null;uniqueIndex:idx_provider_credentials_user_provider"`
	AccessToken  string                   `gorm:"column:access_token;not null"`
	RefreshToken *string                  `gorm:"column:refresh_token"`
	TokenType    string                   `gorm:"column:token_type;not null;default:Bearer"`
	ExpiresAt    *time.Time               `gorm:"column:expires_at"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *ProviderCredential) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
