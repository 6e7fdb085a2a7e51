package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/opticamarket/marketplace-backend/internal/orders"
	"github.com/opticamarket/marketplace-backend/pkg/config"
	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/mercadopago"
	"github.com/opticamarket/marketplace-backend/pkg/metrics"
)

const (
	currencyBRL       = "BRL"
	shippingItemID    = "shipping"
	shippingItemTitle = "Frete"
	webhookPath       = "/api/v1/webhooks/payments"
)

// PreferenceCreator opens hosted checkouts on the gateway.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CheckoutParams wires the checkout service.
type CheckoutParams struct {
	Repo    orders.Repository
	Users   userFinder
	Gateway PreferenceCreator
	Config  config.PaymentsConfig
	App     config.AppConfig
	Metrics *metrics.PaymentMetrics
	Logger  *logger.Logger
}

// CheckoutService creates gateway checkout preferences for pending orders.
type CheckoutService struct {
	repo    orders.Repository
	users   userFinder
	gateway PreferenceCreator
	cfg     config.PaymentsConfig
	app     config.AppConfig
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
}

// CheckoutResult is returned to the buyer to redirect into the hosted checkout.
type CheckoutResult struct {
	PreferenceID     string `json:"preference_id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

func NewCheckoutService(params CheckoutParams) (*CheckoutService, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &CheckoutService{
		repo:    params.Repo,
		users:   params.Users,
		gateway: params.Gateway,
		cfg:     params.Config,
		app:     params.App,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// CreatePreference opens a hosted checkout for a pending order owned by the buyer and stores
// the preference id on the order.
func (s *CheckoutService) CreatePreference(ctx context.Context, buyerID, orderID uuid.UUID) (*CheckoutResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.PaymentStatus == enums.PaymentStatusApproved || order.Status == enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]any{"current_status": order.Status})
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	req := mercadopago.PreferenceRequest{
		Items:             preferenceItems(order),
		Payer:             mercadopago.Payer{Email: buyer.Email, Name: buyer.Name},
		ExternalReference: order.ID.String(),
		BackURLs: &mercadopago.BackURLs{
			Success: s.cfg.BackURL(s.cfg.SuccessURL, s.app.FrontendURL),
			Failure: s.cfg.BackURL(s.cfg.FailureURL, s.app.FrontendURL),
			Pending: s.cfg.BackURL(s.cfg.PendingURL, s.app.FrontendURL),
		},
		AutoReturn:      "approved",
		NotificationURL: s.notificationURL(),
	}

	pref, err := s.gateway.CreatePreference(ctx, req)
	if err != nil {
		s.metrics.IncGatewayFailure("create_preference")
		return nil, err
	}
	if err := s.repo.SetPreference(ctx, order.ID, pref.ID); err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithField(logCtx, "preference_id", pref.ID)
		s.logg.Info(logCtx, "checkout preference created")
	}
	return &CheckoutResult{
		PreferenceID:     pref.ID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

func (s *CheckoutService) notificationURL() string {
	if url := strings.TrimSpace(s.cfg.NotificationURL); url != "" {
		return url
	}
	if base := strings.TrimRight(strings.TrimSpace(s.app.PublicURL), "/"); base != "" {
		return base + webhookPath
	}
	return ""
}

func preferenceItems(order *models.Order) []mercadopago.PreferenceItem {
	items := make([]mercadopago.PreferenceItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		items = append(items, mercadopago.PreferenceItem{
			ID:         item.ProductID.String(),
			Title:      item.ProductName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			CurrencyID: currencyBRL,
		})
	}
	if order.ShippingCost.IsPositive() {
		items = append(items, mercadopago.PreferenceItem{
			ID:         shippingItemID,
			Title:      shippingItemTitle,
			Quantity:   1,
			UnitPrice:  order.ShippingCost,
			CurrencyID: currencyBRL,
		})
	}
	return items
}
