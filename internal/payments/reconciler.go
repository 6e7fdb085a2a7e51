package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/internal/orders"
	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/mercadopago"
	"github.com/opticamarket/marketplace-backend/pkg/metrics"
)

const (
	SourceDirect  = "direct"
	SourceWebhook = "webhook"
	SourcePoll    = "poll"
	SourceRecord  = "record"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockRestorer returns purchased units to stock inside the reconciliation transaction.
type StockRestorer interface {
	RestoreItems(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
}

// PaymentFetcher reads the authoritative payment state from the gateway.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// ReconcilerParams wires the reconciler.
type ReconcilerParams struct {
	Repo    orders.Repository
	Tx      txRunner
	Stock   StockRestorer
	Gateway PaymentFetcher
	Metrics *metrics.PaymentMetrics
	Logger  *logger.Logger
}

// Reconciler keeps order and payment status in line with the gateway.
type Reconciler struct {
	repo    orders.Repository
	tx      txRunner
	stock   StockRestorer
	gateway PaymentFetcher
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &Reconciler{
		repo:    params.Repo,
		tx:      params.Tx,
		stock:   params.Stock,
		gateway: params.Gateway,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Apply maps the gateway status onto the order in one transaction. APPROVED pays a PENDING
// order, REJECTED and CANCELLED cancel it and restore stock once, anything else only updates
// the payment status.
func (r *Reconciler) Apply(ctx context.Context, orderID uuid.UUID, paymentID, externalStatus string) (*models.Order, error) {
	return r.apply(ctx, SourceDirect, orderID, paymentID, externalStatus)
}

func (r *Reconciler) apply(ctx context.Context, source string, orderID uuid.UUID, paymentID, externalStatus string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	status := r.mapStatus(ctx, orderID, externalStatus)

	var (
		updated      *models.Order
		restored     bool
		paidIgnored  bool
		previousStat enums.OrderStatus
	)
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		previousStat = order.Status

		var pid *string
		if paymentID != "" {
			pid = &paymentID
		}
		if err := repo.UpdatePayment(ctx, orderID, pid, status); err != nil {
			return err
		}

		now := r.now()
		switch status {
		case enums.PaymentStatusApproved:
			paid, err := repo.MarkPaid(ctx, orderID, now)
			if err != nil {
				return err
			}
			paidIgnored = !paid && order.Status == enums.OrderStatusCancelled
		case enums.PaymentStatusRejected, enums.PaymentStatusCancelled:
			if _, err := repo.MarkCancelled(ctx, orderID, now); err != nil {
				return err
			}
			claimed, err := repo.ClaimStockRestore(ctx, orderID, now)
			if err != nil {
				return err
			}
			if claimed {
				items, err := repo.FindItems(ctx, orderID)
				if err != nil {
					return err
				}
				if err := r.stock.RestoreItems(ctx, tx, items); err != nil {
					return err
				}
				restored = true
			}
		}

		updated, err = repo.FindDetail(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.metrics.IncReconciled(source, status.String())
	if restored {
		r.metrics.IncStockRestored()
	}
	if r.logg != nil {
		logCtx := r.logg.WithOrderID(ctx, orderID.String())
		logCtx = r.logg.WithFields(logCtx, map[string]any{
			"source":          source,
			"payment_id":      paymentID,
			"external_status": externalStatus,
			"payment_status":  status,
			"previous_status": previousStat,
			"order_status":    updated.Status,
			"stock_restored":  restored,
		})
		if paidIgnored {
			r.logg.Warn(logCtx, "approved payment received for cancelled order")
		} else {
			r.logg.Info(logCtx, "payment status reconciled")
		}
	}
	return updated, nil
}

func (r *Reconciler) mapStatus(ctx context.Context, orderID uuid.UUID, external string) enums.PaymentStatus {
	status, known := MapGatewayStatus(external)
	if known {
		return status
	}
	r.metrics.IncUnmapped(external)
	if r.logg != nil {
		logCtx := r.logg.WithOrderID(ctx, orderID.String())
		logCtx = r.logg.WithField(logCtx, "external_status", external)
		r.logg.Warn(logCtx, "unknown gateway payment status defaulted to pending")
	}
	return status
}

func (r *Reconciler) fetch(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	payment, err := r.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		r.metrics.IncGatewayFailure("get_payment")
		return nil, err
	}
	return payment, nil
}

func (r *Reconciler) warn(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	if err != nil {
		ctx = r.logg.WithField(ctx, "error", err.Error())
	}
	r.logg.Warn(ctx, msg)
}
