package credentials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/db"
	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

// Repository persists provider OAuth credentials.
type Repository interface {
	Find(ctx context.Context, userID uuid.UUID, provider enums.CredentialProvider) (*models.ProviderCredential, error)
	UpdateTokens(ctx context.Context, cred *models.ProviderCredential) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Find(ctx context.Context, userID uuid.UUID, provider enums.CredentialProvider) (*models.ProviderCredential, error) {
	var cred models.ProviderCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&cred).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s credential not found", provider)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load provider credential")
	}
	return &cred, nil
}

func (r *repository) UpdateTokens(ctx context.Context, cred *models.ProviderCredential) error {
	err := r.db.WithContext(ctx).
		Model(&models.ProviderCredential{}).
		Where("id = ?", cred.ID).
		Updates(map[string]any{
			"access_token":  cred.AccessToken,
			"refresh_token": cred.RefreshToken,
			"token_type":    cred.TokenType,
			"expires_at":    cred.ExpiresAt,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update provider credential")
	}
	return nil
}
