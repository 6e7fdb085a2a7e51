package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/opticamarket/marketplace-backend/api/responses"
	"github.com/opticamarket/marketplace-backend/api/validators"
	"github.com/opticamarket/marketplace-backend/internal/shipping"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
)

type shippingQuoteRequest struct {
	PostalCode string          `json:"postal_code" validate:"required,postal_code"`
	WeightKg   decimal.Decimal `json:"weight_kg" validate:"gte=0"`
}

// ShippingQuote prices delivery options for a destination postal code.
func ShippingQuote(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		var payload shippingQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Quote(r.Context(), payload.PostalCode, payload.WeightKg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
