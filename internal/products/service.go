package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	"github.com/opticamarket/marketplace-backend/pkg/erp"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/pagination"
)

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, input ListProductsInput) (pagination.Page[models.Product], error)
}

type tokenProvider interface {
	Token(ctx context.Context, userID uuid.UUID, provider enums.CredentialProvider) (*oauth2.Token, error)
}

type erpPusher interface {
	PushProduct(ctx context.Context, token *oauth2.Token, payload erp.ProductPayload) (*erp.PushedProduct, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	ActorID     uuid.UUID
	ActorRole   enums.UserRole
	SKU         string
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	WeightKg    decimal.Decimal
	CategoryID  *uuid.UUID
	PushToERP   bool
}

// ListProductsInput filters the public catalog.
type ListProductsInput struct {
	SellerID   *uuid.UUID
	CategoryID *uuid.UUID
	Params     pagination.Params
}

// ServiceParams wires the product service.
type ServiceParams struct {
	Repo       Repository
	Tokens     tokenProvider
	ERP        erpPusher
	ERPEnabled bool
	// PlatformERPUser owns the ERP credential used for platform listings.
	PlatformERPUser uuid.UUID
	Logger          *logger.Logger
}

type service struct {
	repo            Repository
	tokens          tokenProvider
	erp             erpPusher
	erpEnabled      bool
	platformERPUser uuid.UUID
	logg            *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.ERPEnabled && (params.Tokens == nil || params.ERP == nil) {
		return nil, fmt.Errorf("erp client and token provider required when erp sync is enabled")
	}
	return &service{
		repo:            params.Repo,
		tokens:          params.Tokens,
		erp:             params.ERP,
		erpEnabled:      params.ERPEnabled,
		platformERPUser: params.PlatformERPUser,
		logg:            params.Logger,
	}, nil
}

// Create stores a product. Sellers own what they create; admins create platform listings.
// When an ERP push is requested it runs first and a failure aborts the local insert.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var sellerID *uuid.UUID
	switch input.ActorRole {
	case enums.UserRoleSeller:
		owner := input.ActorID
		sellerID = &owner
	case enums.UserRoleAdmin:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers and admins can create products")
	}

	product, err := buildProduct(input, sellerID)
	if err != nil {
		return nil, err
	}

	if input.PushToERP && s.erpEnabled {
		// An ERP listing cannot be rolled back, so a taken SKU must fail before the push.
		// The unique index still catches a concurrent insert.
		taken, err := s.repo.SKUExists(ctx, product.SKU)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "sku %s already exists", product.SKU)
		}
		erpID, err := s.pushToERP(ctx, product)
		if err != nil {
			return nil, err
		}
		product.ERPProductID = &erpID
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) pushToERP(ctx context.Context, product *models.Product) (string, error) {
	account := s.platformERPUser
	if product.SellerID != nil {
		account = *product.SellerID
	}
	if account == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "erp account not configured")
	}

	token, err := s.tokens.Token(ctx, account, enums.CredentialProviderERP)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "erp credential missing")
		}
		return "", err
	}

	payload := erp.ProductPayload{
		SKU:      product.SKU,
		Name:     product.Name,
		Price:    product.Price,
		Stock:    product.Stock,
		WeightKg: product.WeightKg,
	}
	if product.Description != nil {
		payload.Description = *product.Description
	}

	pushed, err := s.erp.PushProduct(ctx, token, payload)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "sku", product.SKU), "erp product push failed", err)
		}
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDependency {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "erp product push failed")
	}
	return pushed.ID, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (pagination.Page[models.Product], error) {
	cursor, err := pagination.ParseCursor(input.Params.Cursor)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, ListFilters{
		SellerID:   input.SellerID,
		CategoryID: input.CategoryID,
		ActiveOnly: true,
	}, cursor, input.Params.Limit)
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}
	return pagination.Build(rows, input.Params.Limit, productCursor), nil
}

func productCursor(p models.Product) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

func buildProduct(input CreateProductInput, sellerID *uuid.UUID) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.WeightKg.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
	}
	return &models.Product{
		SKU:         sku,
		Name:        name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		WeightKg:    input.WeightKg,
		SellerID:    sellerID,
		CategoryID:  input.CategoryID,
		IsActive:    true,
	}, nil
}
