package payments

import (
	"context"
	"errors"

	"github.com/furnhaus/furnhaus-backend/internal/orders"
	"github.com/furnhaus/furnhaus-backend/internal/vendors"
	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	"github.com/furnhaus/furnhaus-backend/pkg/enums"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

// ProcessorClient is the injected payment processor surface. The production
// implementation wraps Stripe; tests substitute a stub.
type ProcessorClient interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// IntentResult is what the client needs to finish paying for an order.
type IntentResult struct {
	OrderID       uuid.UUID
	OrderNumber   string
	IntentID      string
	ClientSecret  string
	PaymentStatus enums.PaymentStatus
	AmountCents   int64
}

// StatusResult reports the locally reconciled payment state of an order.
type StatusResult struct {
	OrderID       uuid.UUID
	PaymentStatus enums.PaymentStatus
	IntentID      *string
	RefundedCents int64
}

// Service orchestrates payment intent creation and status reads.
type Service interface {
	InitiatePayment(ctx context.Context, customerID, orderID uuid.UUID) (*IntentResult, error)
	PaymentStatus(ctx context.Context, customerID, orderID uuid.UUID) (*StatusResult, error)
}

type service struct {
	repo      orders.Repository
	vendors   vendors.Repository
	processor ProcessorClient
	logg      *logger.Logger
}

// NewService builds a payment orchestration service.
func NewService(repo orders.Repository, vendorRepo vendors.Repository, processor ProcessorClient, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository is required")
	}
	if vendorRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendors repository is required")
	}
	if processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "processor client is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger is required")
	}
	return &service{repo: repo, vendors: vendorRepo, processor: processor, logg: logg}, nil
}

// InitiatePayment creates (or re-surfaces) the payment intent for an order.
// Re-entry is idempotent: an order that already holds an intent gets the
// same intent back unless the processor reports it already succeeded.
func (s *service) InitiatePayment(ctx context.Context, customerID, orderID uuid.UUID) (*IntentResult, error) {
	order, err := s.loadOwned(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be paid")
	}
	if order.PaymentStatus == enums.PaymentStatusSucceeded || order.PaymentStatus == enums.PaymentStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid").
			WithDetails(map[string]any{"payment_status": order.PaymentStatus.String()})
	}

	if order.PaymentIntentID != nil {
		return s.resumeIntent(ctx, order)
	}

	vendor, err := s.vendors.FindByID(ctx, order.VendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading vendor")
	}

	params := s.intentParams(ctx, order, vendor)
	intent, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment intent")
	}

	updates := map[string]any{
		"payment_intent_id": intent.ID,
		"payment_status":    enums.PaymentStatusProcessing,
	}
	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		// The intent exists processor-side but we failed to record it. The
		// webhook reconciler will still match it by metadata on success, so
		// surface the error rather than orphaning the order silently.
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording payment intent")
	}

	return &IntentResult{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		IntentID:      intent.ID,
		ClientSecret:  intent.ClientSecret,
		PaymentStatus: enums.PaymentStatusProcessing,
		AmountCents:   order.TotalCents,
	}, nil
}

func (s *service) resumeIntent(ctx context.Context, order *models.Order) (*IntentResult, error) {
	intent, err := s.processor.GetPaymentIntent(ctx, *order.PaymentIntentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieving payment intent")
	}
	if intent.Status == stripe.PaymentIntentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already completed for this order")
	}
	return &IntentResult{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		IntentID:      intent.ID,
		ClientSecret:  intent.ClientSecret,
		PaymentStatus: order.PaymentStatus,
		AmountCents:   order.TotalCents,
	}, nil
}

// intentParams builds a split charge routing the vendor's share to their
// connected account when payouts are ready, and a plain platform charge
// otherwise. The commission stays on the platform in both cases; degraded
// routing is reconciled by a manual payout later.
func (s *service) intentParams(ctx context.Context, order *models.Order, vendor *models.Vendor) *stripe.PaymentIntentCreateParams {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(order.TotalCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
	}

	if vendor.PayoutReady() {
		params.ApplicationFeeAmount = stripe.Int64(order.CommissionCents)
		params.TransferData = &stripe.PaymentIntentCreateTransferDataParams{
			Destination: stripe.String(*vendor.StripeAccountID),
		}
		return params
	}

	s.logg.Warn(
		s.logg.WithFields(ctx, map[string]any{
			"order_id":  order.ID.String(),
			"vendor_id": vendor.ID.String(),
		}),
		"vendor payout account not ready, charging without split",
	)
	return params
}

// PaymentStatus reads the locally reconciled payment state. Webhooks keep
// this current; the endpoint never calls the processor.
func (s *service) PaymentStatus(ctx context.Context, customerID, orderID uuid.UUID) (*StatusResult, error) {
	order, err := s.loadOwned(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		OrderID:       order.ID,
		PaymentStatus: order.PaymentStatus,
		IntentID:      order.PaymentIntentID,
		RefundedCents: order.RefundedCents,
	}, nil
}

func (s *service) loadOwned(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndCustomer(ctx, orderID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}
