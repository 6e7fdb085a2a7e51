package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opticamarket/marketplace-backend/api/middleware"
	"github.com/opticamarket/marketplace-backend/api/responses"
	"github.com/opticamarket/marketplace-backend/api/validators"
	product "github.com/opticamarket/marketplace-backend/internal/products"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/pagination"
)

// ProductList returns the active catalog, optionally filtered by seller or category.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellerID, err := validators.ParseQueryUUID(r, "seller_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), product.ListProductsInput{
			SellerID:   sellerID,
			CategoryID: categoryID,
			Params:     params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pagination.Page[product.ProductDTO]{
			Items:      product.FromModels(page.Items),
			NextCursor: page.NextCursor,
		})
	}
}

// ProductDetail returns a single active product.
func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		p, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product.FromModel(p))
	}
}

// ProductCreate creates a product owned by the calling seller, or a platform product when the
// caller is an admin.
func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actorID, role, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorID = actorID
		input.ActorRole = role

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product.FromModel(created))
	}
}

type createProductRequest struct {
	SKU         string           `json:"sku" validate:"required,max=64"`
	Name        string           `json:"name" validate:"required,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       decimal.Decimal  `json:"price" validate:"gt=0"`
	Stock       int              `json:"stock" validate:"min=0"`
	WeightKg    *decimal.Decimal `json:"weight_kg,omitempty" validate:"omitempty,gte=0"`
	CategoryID  *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
	PushToERP   bool             `json:"push_to_erp"`
}

func (r createProductRequest) toCreateInput() (product.CreateProductInput, error) {
	weight := decimal.Zero
	if r.WeightKg != nil {
		weight = *r.WeightKg
	}

	var categoryID *uuid.UUID
	if r.CategoryID != nil {
		parsed, err := uuid.Parse(strings.TrimSpace(*r.CategoryID))
		if err != nil {
			return product.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		categoryID = &parsed
	}

	return product.CreateProductInput{
		SKU:         strings.TrimSpace(r.SKU),
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		WeightKg:    weight,
		CategoryID:  categoryID,
		PushToERP:   r.PushToERP,
	}, nil
}
