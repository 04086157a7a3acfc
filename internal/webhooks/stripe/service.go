package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/furnhaus/furnhaus-backend/internal/notifications"
	"github.com/furnhaus/furnhaus-backend/internal/orders"
	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	"github.com/furnhaus/furnhaus-backend/pkg/enums"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
	"github.com/furnhaus/furnhaus-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams carries the reconciler's dependencies.
type ServiceParams struct {
	OrdersRepo        orders.Repository
	Notifier          notifications.Gateway
	TransactionRunner txRunner
	Logger            *logger.Logger
	Metrics           *metrics.CheckoutMetrics
}

// Service reconciles processor webhook events into local payment state.
// Every transition is idempotent: replayed events settle into the same
// final state without double-applying.
type Service struct {
	repo     orders.Repository
	notifier notifications.Gateway
	txRunner txRunner
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notification gateway required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:     params.OrdersRepo,
		notifier: params.Notifier,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// HandleEvent routes a verified event to its reconciliation step. Unknown
// event types are deliberately ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, ok := s.decodeIntent(ctx, event)
		if !ok {
			return nil
		}
		return s.applyPaymentSucceeded(ctx, intent)
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, ok := s.decodeIntent(ctx, event)
		if !ok {
			return nil
		}
		return s.applyPaymentFailed(ctx, intent)
	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			// retrying never fixes a malformed payload, so acknowledge
			// instead of forcing endless redeliveries
			s.logg.Warn(ctx, "discarding undecodable charge event")
			s.metrics.IncWebhookEvent(string(event.Type), "ignored")
			return nil
		}
		return s.applyChargeRefunded(ctx, &charge)
	default:
		s.metrics.IncWebhookEvent(string(event.Type), "ignored")
		return nil
	}
}

// decodeIntent unpacks a payment intent payload. Malformed payloads are
// logged and dropped rather than surfaced as errors: the delivery must be
// acknowledged, not retried.
func (s *Service) decodeIntent(ctx context.Context, event *stripe.Event) (*stripe.PaymentIntent, bool) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		s.logg.Warn(ctx, "discarding undecodable payment intent event")
		s.metrics.IncWebhookEvent(string(event.Type), "ignored")
		return nil, false
	}
	return &intent, true
}

func (s *Service) applyPaymentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error {
	var (
		confirmed *models.Order
		outcome   = "noop"
	)

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.findOrder(ctx, repo, intent)
		if err != nil || order == nil {
			return err
		}
		if order.PaymentStatus == enums.PaymentStatusSucceeded {
			return nil
		}

		updates := map[string]any{
			"payment_status":    enums.PaymentStatusSucceeded,
			"payment_intent_id": intent.ID,
		}
		conditions := map[string]any{
			"payment_status": order.PaymentStatus,
		}
		if order.Status == enums.OrderStatusPending {
			// the auto-confirm decision was made from this read of status,
			// so the write must be guarded on it too: a cancellation that
			// commits in between only touches status, and an unguarded
			// update would resurrect the cancelled order
			updates["status"] = enums.OrderStatusConfirmed
			conditions["status"] = order.Status
		}
		rows, err := repo.UpdateWhere(ctx, order.ID, updates, conditions)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirming payment")
		}
		if rows == 0 {
			if _, confirming := updates["status"]; confirming {
				// either a cancellation or another delivery moved the order
				// after our read; fail the delivery so the retry re-reads
				// the settled state and records only what still applies
				return pkgerrors.New(pkgerrors.CodeTxConflict, "order changed while confirming payment")
			}
			// another delivery of the same event won the race
			return nil
		}

		order.PaymentStatus = enums.PaymentStatusSucceeded
		if order.Status == enums.OrderStatusPending {
			order.Status = enums.OrderStatusConfirmed
		}
		confirmed = order
		outcome = "applied"
		return nil
	})
	if err != nil {
		s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentSucceeded), "error")
		return err
	}

	s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentSucceeded), outcome)
	if confirmed != nil {
		if err := s.notifier.PaymentSucceeded(ctx, confirmed); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, confirmed.ID.String()), "payment succeeded notification failed")
		}
	}
	return nil
}

func (s *Service) applyPaymentFailed(ctx context.Context, intent *stripe.PaymentIntent) error {
	var (
		failed  *models.Order
		outcome = "noop"
	)

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.findOrder(ctx, repo, intent)
		if err != nil || order == nil {
			return err
		}
		switch order.PaymentStatus {
		case enums.PaymentStatusFailed:
			return nil
		case enums.PaymentStatusSucceeded, enums.PaymentStatusRefunded:
			// stale failure delivered after the payment settled
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "ignoring stale payment failure event")
			return nil
		}

		rows, err := repo.UpdateWhere(ctx, order.ID,
			map[string]any{"payment_status": enums.PaymentStatusFailed},
			map[string]any{"payment_status": order.PaymentStatus},
		)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording payment failure")
		}
		if rows == 0 {
			return nil
		}

		order.PaymentStatus = enums.PaymentStatusFailed
		failed = order
		outcome = "applied"
		return nil
	})
	if err != nil {
		s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentPaymentFailed), "error")
		return err
	}

	s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentPaymentFailed), outcome)
	if failed != nil {
		if err := s.notifier.PaymentFailed(ctx, failed); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, failed.ID.String()), "payment failed notification failed")
		}
	}
	return nil
}

// applyChargeRefunded reconciles processor-side refunds. Partial refunds
// only advance the refunded amount; a fully refunded charge also moves both
// statuses to REFUNDED. Inventory never comes back on refunds.
func (s *Service) applyChargeRefunded(ctx context.Context, charge *stripe.Charge) error {
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		s.logg.Warn(ctx, "charge.refunded event without payment intent reference")
		s.metrics.IncWebhookEvent(string(stripe.EventTypeChargeRefunded), "ignored")
		return nil
	}

	outcome := "noop"
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByPaymentIntentID(ctx, charge.PaymentIntent.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logg.Warn(ctx, "charge.refunded event for unknown payment intent")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}

		updates := map[string]any{}
		if charge.AmountRefunded > order.RefundedCents {
			updates["refunded_cents"] = charge.AmountRefunded
		}
		if charge.Refunded && order.PaymentStatus != enums.PaymentStatusRefunded {
			updates["payment_status"] = enums.PaymentStatusRefunded
			updates["status"] = enums.OrderStatusRefunded
		}
		if len(updates) == 0 {
			return nil
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording refund")
		}
		outcome = "applied"
		return nil
	})
	if err != nil {
		s.metrics.IncWebhookEvent(string(stripe.EventTypeChargeRefunded), "error")
		return err
	}
	s.metrics.IncWebhookEvent(string(stripe.EventTypeChargeRefunded), outcome)
	return nil
}

// findOrder resolves the order for an intent, falling back to the order_id
// metadata when the intent id was never recorded locally. The fallback
// covers the window where intent creation succeeded but the local write of
// the intent id failed.
func (s *Service) findOrder(ctx context.Context, repo orders.Repository, intent *stripe.PaymentIntent) (*models.Order, error) {
	order, err := repo.FindByPaymentIntentID(ctx, intent.ID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}

	rawID := intent.Metadata["order_id"]
	if rawID == "" {
		s.logg.Warn(ctx, "webhook event for unknown payment intent")
		return nil, nil
	}
	orderID, parseErr := uuid.Parse(rawID)
	if parseErr != nil {
		s.logg.Warn(ctx, "webhook event carries malformed order_id metadata")
		return nil, nil
	}
	order, err = repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, "webhook event references missing order")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order by metadata")
	}
	return order, nil
}
