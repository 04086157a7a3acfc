package refunds

import (
	"context"
	"errors"

	"github.com/furnhaus/furnhaus-backend/internal/notifications"
	"github.com/furnhaus/furnhaus-backend/internal/orders"
	"github.com/furnhaus/furnhaus-backend/pkg/auth"
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

// RefundProcessor is the processor surface the manager needs.
type RefundProcessor interface {
	CreateRefund(ctx context.Context, params *stripe.RefundCreateParams) (*stripe.Refund, error)
}

// Actor identifies who is asking for the refund. Vendors may only refund
// their own orders; admins may refund any.
type Actor struct {
	Role     auth.Role
	VendorID *uuid.UUID
}

// Input carries a refund request. A nil AmountCents means refund whatever
// remains unrefunded.
type Input struct {
	OrderID     uuid.UUID
	AmountCents *int64
	Reason      *string
}

// Result reports the applied refund.
type Result struct {
	OrderID            uuid.UUID
	RefundID           string
	AmountCents        int64
	TotalRefundedCents int64
	PaymentStatus      enums.PaymentStatus
	OrderStatus        enums.OrderStatus
}

// Service issues refunds through the processor and mirrors them locally.
type Service interface {
	Refund(ctx context.Context, actor Actor, input Input) (*Result, error)
}

type service struct {
	repo      orders.Repository
	tx        txRunner
	processor RefundProcessor
	notifier  notifications.Gateway
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
}

// NewService builds the refund manager.
func NewService(repo orders.Repository, tx txRunner, processor RefundProcessor, notifier notifications.Gateway, logg *logger.Logger, m *metrics.CheckoutMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner is required")
	}
	if processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "refund processor is required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification gateway is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger is required")
	}
	return &service{repo: repo, tx: tx, processor: processor, notifier: notifier, logg: logg, metrics: m}, nil
}

// Refund validates the request, issues the processor refund first, then
// mirrors the result locally. The processor call precedes the local write
// on purpose: a refunded charge with stale local state self-heals via the
// webhook reconciler, while the reverse would record money that never moved.
// Refunds never restore inventory; the goods are presumed shipped or
// otherwise disposed.
func (s *service) Refund(ctx context.Context, actor Actor, input Input) (*Result, error) {
	order, err := s.authorize(ctx, actor, input.OrderID)
	if err != nil {
		s.metrics.IncRefund("rejected")
		return nil, err
	}

	amount, err := resolveAmount(order, input.AmountCents)
	if err != nil {
		s.metrics.IncRefund("rejected")
		return nil, err
	}

	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(*order.PaymentIntentID),
		Amount:        stripe.Int64(amount),
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
	}
	if input.Reason != nil {
		params.Metadata["reason"] = *input.Reason
	}

	refund, err := s.processor.CreateRefund(ctx, params)
	if err != nil {
		s.metrics.IncRefund("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating refund")
	}

	result := &Result{
		OrderID:     order.ID,
		RefundID:    refund.ID,
		AmountCents: amount,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		newTotal := order.RefundedCents + amount
		updates := map[string]any{"refunded_cents": newTotal}
		paymentStatus := order.PaymentStatus
		orderStatus := order.Status
		if newTotal >= order.TotalCents {
			paymentStatus = enums.PaymentStatusRefunded
			orderStatus = enums.OrderStatusRefunded
			updates["payment_status"] = paymentStatus
			updates["status"] = orderStatus
		}

		rows, err := repo.UpdateWhere(ctx, order.ID, updates, map[string]any{
			"refunded_cents": order.RefundedCents,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording refund")
		}
		if rows == 0 {
			// a concurrent refund or webhook moved the amount first; the
			// processor refund stands and reconciliation settles the rest
			return pkgerrors.New(pkgerrors.CodeTxConflict, "order refund state changed concurrently")
		}

		result.TotalRefundedCents = newTotal
		result.PaymentStatus = paymentStatus
		result.OrderStatus = orderStatus
		return nil
	})
	if err != nil {
		s.metrics.IncRefund("failed")
		return nil, err
	}

	s.metrics.IncRefund("success")
	order.RefundedCents = result.TotalRefundedCents
	order.PaymentStatus = result.PaymentStatus
	order.Status = result.OrderStatus
	if err := s.notifier.OrderRefunded(ctx, order, amount); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order refunded notification failed")
	}
	return result, nil
}

func (s *service) authorize(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}

	switch actor.Role {
	case auth.RoleAdmin:
	case auth.RoleVendor:
		if actor.VendorID == nil || *actor.VendorID != order.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "refunds require vendor or admin access")
	}
	return order, nil
}

func resolveAmount(order *models.Order, requested *int64) (int64, error) {
	if order.PaymentStatus != enums.PaymentStatusSucceeded {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "only successfully paid orders can be refunded").
			WithDetails(map[string]any{"payment_status": order.PaymentStatus.String()})
	}
	if order.PaymentIntentID == nil || *order.PaymentIntentID == "" {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment intent to refund against")
	}

	remaining := order.TotalCents - order.RefundedCents
	if remaining <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already fully refunded")
	}

	amount := remaining
	if requested != nil {
		amount = *requested
	}
	if amount <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if amount > remaining {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds the unrefunded balance").
			WithDetails(map[string]any{
				"requested_cents": amount,
				"remaining_cents": remaining,
			})
	}
	return amount, nil
}
