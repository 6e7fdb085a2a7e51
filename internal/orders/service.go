package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/metrics"
	"github.com/opticamarket/marketplace-backend/pkg/pagination"
)

// Service defines checkout, status and query operations on orders.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) ([]models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	GetForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[models.Order], error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Products  productLoader
	Addresses addressFinder
	Stock     StockDecrementer
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	products  productLoader
	addresses addressFinder
	stock     StockDecrementer
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address finder required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		products:  params.Products,
		addresses: params.Addresses,
		stock:     params.Stock,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", input.Status)
	}

	var from enums.OrderStatus
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if !canManage(order, input.ActorID, input.ActorRole) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
		}
		from = order.Status
		if !CanTransition(order.Status, input.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot transition order from %s to %s", order.Status, input.Status).
				WithDetails(map[string]any{
					"current_status":   order.Status,
					"requested_status": input.Status,
				})
		}

		ok, err := repo.UpdateStatus(ctx, order.ID, order.Status, input.Status, time.Now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently, retry")
		}

		updated, err = repo.FindDetail(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(from.String(), input.Status.String())
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"from":       from,
			"to":         input.Status,
			"actor_role": input.ActorRole,
		})
		s.logg.Info(logCtx, "order status transitioned")
	}
	return updated, nil
}

// canManage allows admins on every order and sellers on their own. Platform orders are admin only.
func canManage(order *models.Order, actorID uuid.UUID, role enums.UserRole) bool {
	switch role {
	case enums.UserRoleAdmin:
		return true
	case enums.UserRoleSeller:
		return order.SellerID != nil && *order.SellerID == actorID
	default:
		return false
	}
}

func (s *service) GetForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	return s.list(ctx, ListFilters{UserID: &buyerID}, params)
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	return s.list(ctx, ListFilters{SellerID: &sellerID}, params)
}

func (s *service) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[models.Order], error) {
	if status != nil && !status.IsValid() {
		return pagination.Page[models.Order]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *status)
	}
	return s.list(ctx, ListFilters{Status: status}, params)
}

func (s *service) list(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[models.Order], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filters, cursor, params.Limit)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.Build(rows, params.Limit, orderCursor), nil
}

func orderCursor(o models.Order) pagination.Cursor {
	return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
}
