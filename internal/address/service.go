package address

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a buyer's address book. A user has at most one default address.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	FindForOwner(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeUnauthorized, "user identity missing")
	}
	addr := input.toModel(userID)
	if len(addr.PostalCode) != 8 {
		return nil, errors.New(errors.CodeValidation, "postal code must have 8 digits")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, addr)
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeUnauthorized, "user identity missing")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		addr, err := findOwned(ctx, repo, userID, addressID)
		if err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		if err := repo.MarkDefault(ctx, addr.ID); err != nil {
			return err
		}
		addr.IsDefault = true
		updated = addr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// FindForOwner returns NotFound for an unknown id and Forbidden when the address belongs to someone else.
func (s *service) FindForOwner(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	return findOwned(ctx, s.repo, userID, addressID)
}

func findOwned(ctx context.Context, repo Repository, userID, addressID uuid.UUID) (*models.Address, error) {
	addr, err := repo.FindByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if addr.UserID != userID {
		return nil, errors.New(errors.CodeForbidden, "address does not belong to user")
	}
	return addr, nil
}
