package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opticamarket/marketplace-backend/api/middleware"
	"github.com/opticamarket/marketplace-backend/api/responses"
	"github.com/opticamarket/marketplace-backend/api/validators"
	internalorders "github.com/opticamarket/marketplace-backend/internal/orders"
	"github.com/opticamarket/marketplace-backend/internal/payments"
	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/pagination"
)

// PaymentStatusService refreshes or records the gateway payment attached to an order.
type PaymentStatusService interface {
	RefreshStatus(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
	RecordPayment(ctx context.Context, buyerID, orderID uuid.UUID, paymentID string) (*models.Order, error)
}

// CheckoutService opens the hosted gateway checkout for an order.
type CheckoutService interface {
	CreatePreference(ctx context.Context, buyerID, orderID uuid.UUID) (*payments.CheckoutResult, error)
}

type createOrderRequest struct {
	AddressID     string              `json:"address_id" validate:"required,uuid"`
	PaymentMethod string              `json:"payment_method" validate:"required"`
	Items         []createOrderItem   `json:"items" validate:"required,min=1,dive"`
	Shipping      createOrderShipping `json:"shipping" validate:"required"`
}

type createOrderItem struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type createOrderShipping struct {
	Type   string          `json:"type" validate:"required"`
	Method *string         `json:"method,omitempty" validate:"omitempty,max=60"`
	Cost   decimal.Decimal `json:"cost" validate:"gte=0"`
}

func (r createOrderRequest) toInput(buyerID uuid.UUID) (internalorders.CreateOrderInput, error) {
	addressID, err := uuid.Parse(strings.TrimSpace(r.AddressID))
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id")
	}
	method, err := enums.ParsePaymentMethod(strings.ToUpper(strings.TrimSpace(r.PaymentMethod)))
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	shippingType, err := enums.ParseShippingType(strings.ToUpper(strings.TrimSpace(r.Shipping.Type)))
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping type")
	}

	items := make([]internalorders.CartItem, 0, len(r.Items))
	for _, item := range r.Items {
		productID, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, internalorders.CartItem{ProductID: productID, Quantity: item.Quantity})
	}

	return internalorders.CreateOrderInput{
		BuyerID:       buyerID,
		AddressID:     addressID,
		Items:         items,
		PaymentMethod: method,
		Shipping: internalorders.ShippingSelection{
			Type:   shippingType,
			Method: r.Shipping.Method,
			Cost:   r.Shipping.Cost,
		},
	}, nil
}

// Create turns the buyer's cart into one order per seller. A single order is returned as an
// object, several as an array.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		buyerID, _, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if len(created) == 1 {
			responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.FromModel(&created[0]))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.FromModels(created))
	}
}

// List returns the caller's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		buyerID, _, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForBuyer(r.Context(), buyerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPage(page))
	}
}

// Detail returns one of the caller's orders with items and address.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		buyerID, orderID, err := buyerAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForBuyer(r.Context(), buyerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.FromModel(order))
	}
}

// Checkout opens a hosted checkout for a pending order.
func Checkout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		buyerID, orderID, err := buyerAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreatePreference(r.Context(), buyerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentStatus re-reads the gateway and returns the current order.
func PaymentStatus(svc PaymentStatusService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		buyerID, orderID, err := buyerAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RefreshStatus(r.Context(), buyerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.FromModel(order))
	}
}

type recordPaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required,max=64"`
}

// RecordPayment accepts the payment id handed back by the checkout redirect.
func RecordPayment(svc PaymentStatusService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		buyerID, orderID, err := buyerAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RecordPayment(r.Context(), buyerID, orderID, payload.PaymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.FromModel(order))
	}
}

// SellerList returns orders containing the calling seller's products.
func SellerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		sellerID, _, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForSeller(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPage(page))
	}
}

// AdminList returns every order, optionally filtered by status.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseStatusParam(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListAll(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPage(page))
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus moves an order along the fulfillment state machine. Sellers may only act on
// their own orders; admins on any order.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actorID, role, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			OrderID:   orderID,
			Status:    status,
			ActorID:   actorID,
			ActorRole: role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.FromModel(updated))
	}
}

func buyerAndOrder(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	buyerID, _, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return buyerID, orderID, nil
}

func parseStatusParam(raw string) (*enums.OrderStatus, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"})
	}
	return &status, nil
}

func toPage(page pagination.Page[models.Order]) pagination.Page[internalorders.OrderDTO] {
	return pagination.Page[internalorders.OrderDTO]{
		Items:      internalorders.FromModels(page.Items),
		NextCursor: page.NextCursor,
	}
}
