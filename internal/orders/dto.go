package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
)

// CartItem is one requested product and quantity.
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// ShippingSelection is the buyer's chosen shipping option for the whole cart.
type ShippingSelection struct {
	Type   enums.ShippingType
	Method *string
	Cost   decimal.Decimal
}

// CreateOrderInput carries a checkout request.
type CreateOrderInput struct {
	BuyerID       uuid.UUID
	AddressID     uuid.UUID
	Items         []CartItem
	PaymentMethod enums.PaymentMethod
	Shipping      ShippingSelection
}

// TransitionInput is a seller or admin initiated status change.
type TransitionInput struct {
	OrderID   uuid.UUID
	Status    enums.OrderStatus
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// OrderItemDTO is the transport shape of an order line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// AddressDTO is the delivery address embedded in order details.
type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Recipient  string    `json:"recipient"`
	Street     string    `json:"street"`
	Number     string    `json:"number"`
	Complement *string   `json:"complement,omitempty"`
	District   string    `json:"district"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
}

// OrderDTO is the transport shape of an order.
type OrderDTO struct {
	ID             uuid.UUID           `json:"id"`
	UserID         uuid.UUID           `json:"user_id"`
	SellerID       *uuid.UUID          `json:"seller_id,omitempty"`
	AddressID      uuid.UUID           `json:"address_id"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	ShippingType   enums.ShippingType  `json:"shipping_type"`
	ShippingMethod *string             `json:"shipping_method,omitempty"`
	ShippingCost   decimal.Decimal     `json:"shipping_cost"`
	ItemsTotal     decimal.Decimal     `json:"items_total"`
	Total          decimal.Decimal     `json:"total"`
	Status         enums.OrderStatus   `json:"status"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	PaymentID      *string             `json:"payment_id,omitempty"`
	PreferenceID   *string             `json:"preference_id,omitempty"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty"`
	Items          []OrderItemDTO      `json:"items"`
	Address        *AddressDTO         `json:"address,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:             o.ID,
		UserID:         o.UserID,
		SellerID:       o.SellerID,
		AddressID:      o.AddressID,
		PaymentMethod:  o.PaymentMethod,
		ShippingType:   o.ShippingType,
		ShippingMethod: o.ShippingMethod,
		ShippingCost:   o.ShippingCost,
		ItemsTotal:     o.ItemsTotal,
		Total:          o.Total,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		PaymentID:      o.PaymentID,
		PreferenceID:   o.PreferenceID,
		PaidAt:         o.PaidAt,
		CancelledAt:    o.CancelledAt,
		Items:          make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
		})
	}
	if o.Address != nil {
		dto.Address = &AddressDTO{
			ID:         o.Address.ID,
			Recipient:  o.Address.Recipient,
			Street:     o.Address.Street,
			Number:     o.Address.Number,
			Complement: o.Address.Complement,
			District:   o.Address.District,
			City:       o.Address.City,
			State:      o.Address.State,
			PostalCode: o.Address.PostalCode,
			Country:    o.Address.Country,
		}
	}
	return dto
}

// FromModels maps a slice of orders.
func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
