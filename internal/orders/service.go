package orders

import (
	"context"
	"errors"
	"time"

	"github.com/furnhaus/furnhaus-backend/internal/notifications"
	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	"github.com/furnhaus/furnhaus-backend/pkg/enums"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InventoryRestorer returns committed stock when a pending order is
// cancelled before payment confirmation.
type InventoryRestorer interface {
	Increment(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, qty int) error
}

// VendorStatusInput carries a vendor's fulfillment update for one order.
type VendorStatusInput struct {
	OrderID        uuid.UUID
	VendorID       uuid.UUID
	Status         enums.OrderStatus
	TrackingNumber *string
	Carrier        *string
}

// Service defines order lifecycle operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error)
	Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error)
	UpdateVendorStatus(ctx context.Context, input VendorStatusInput) (*models.Order, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory InventoryRestorer
	notifier  notifications.Gateway
	logg      *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, inventory InventoryRestorer, notifier notifications.Gateway, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner is required")
	}
	if inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory restorer is required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification gateway is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger is required")
	}
	return &service{repo: repo, tx: tx, inventory: inventory, notifier: notifier, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndCustomer(ctx, orderID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return rows, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing vendor orders")
	}
	return rows, nil
}

// Cancel aborts a pending order and returns its stock in one transaction.
// Orders past PENDING have confirmed payment and must go through the refund
// flow instead.
func (s *service) Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	var cancelled *models.Order

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDAndCustomer(ctx, orderID, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		now := time.Now().UTC()
		rows, err := repo.UpdateWhere(ctx, order.ID,
			map[string]any{
				"status":       enums.OrderStatusCancelled,
				"cancelled_at": now,
			},
			map[string]any{"status": enums.OrderStatusPending},
		)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancelling order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeTxConflict, "order changed state during cancellation")
		}

		for _, item := range order.Items {
			if err := s.inventory.Increment(ctx, tx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}

		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.OrderCancelled(ctx, cancelled); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, cancelled.ID.String()), "order cancelled notification failed")
	}
	return cancelled, nil
}

// vendorTransitions maps each vendor-settable status to the status the
// order must currently hold.
var vendorTransitions = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusProcessing: enums.OrderStatusConfirmed,
	enums.OrderStatusShipped:    enums.OrderStatusProcessing,
	enums.OrderStatusDelivered:  enums.OrderStatusShipped,
}

// UpdateVendorStatus advances fulfillment one stage at a time. Shipping
// requires a tracking number so the customer notice always carries one.
func (s *service) UpdateVendorStatus(ctx context.Context, input VendorStatusInput) (*models.Order, error) {
	requiredCurrent, ok := vendorTransitions[input.Status]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is not vendor-settable").
			WithDetails(map[string]any{"status": input.Status.String()})
	}
	if input.Status == enums.OrderStatusShipped && (input.TrackingNumber == nil || *input.TrackingNumber == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required to mark an order shipped")
	}

	order, err := s.repo.FindByIDAndVendor(ctx, input.OrderID, input.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order.Status != requiredCurrent {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in a state that allows this transition").
			WithDetails(map[string]any{
				"current":  order.Status.String(),
				"target":   input.Status.String(),
				"required": requiredCurrent.String(),
			})
	}

	updates := map[string]any{"status": input.Status}
	if input.Status == enums.OrderStatusShipped {
		updates["tracking_number"] = *input.TrackingNumber
		if input.Carrier != nil {
			updates["carrier"] = *input.Carrier
		}
	}
	var deliveredAt time.Time
	if input.Status == enums.OrderStatusDelivered {
		deliveredAt = time.Now().UTC()
		updates["delivered_at"] = deliveredAt
	}

	rows, err := s.repo.UpdateWhere(ctx, order.ID, updates, map[string]any{"status": requiredCurrent})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeTxConflict, "order changed state during update")
	}

	order.Status = input.Status
	if input.Status == enums.OrderStatusShipped {
		order.TrackingNumber = input.TrackingNumber
		order.Carrier = input.Carrier
	}
	if input.Status == enums.OrderStatusDelivered {
		order.DeliveredAt = &deliveredAt
	}

	if input.Status == enums.OrderStatusShipped {
		if err := s.notifier.OrderShipped(ctx, order); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order shipped notification failed")
		}
	}
	return order, nil
}
