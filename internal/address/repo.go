package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/db"
	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

// Repository persists buyer delivery addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, addr *models.Address) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ClearDefault(ctx context.Context, userID uuid.UUID) error
	MarkDefault(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, addr *models.Address) error {
	if err := r.db.WithContext(ctx).Create(addr).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var addr models.Address
	if err := r.db.WithContext(ctx).First(&addr, "id = ?", id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	return &addr, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return rows, nil
}

func (r *repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count addresses")
	}
	return count, nil
}

func (r *repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		UpdateColumn("is_default", false).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
	}
	return nil
}

func (r *repository) MarkDefault(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ?", id).
		UpdateColumn("is_default", true).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark default address")
	}
	return nil
}
