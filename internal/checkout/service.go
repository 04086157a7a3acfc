package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/furnhaus/furnhaus-backend/internal/cart"
	"github.com/furnhaus/furnhaus-backend/internal/notifications"
	"github.com/furnhaus/furnhaus-backend/internal/orders"
	"github.com/furnhaus/furnhaus-backend/internal/vendors"
	"github.com/furnhaus/furnhaus-backend/pkg/db"
	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	"github.com/furnhaus/furnhaus-backend/pkg/enums"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
	"github.com/furnhaus/furnhaus-backend/pkg/metrics"
	"github.com/furnhaus/furnhaus-backend/pkg/ordernum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const orderNumberIndex = "idx_orders_order_number"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lineValidator interface {
	Validate(ctx context.Context, customerID uuid.UUID) ([]cart.ValidatedLine, error)
}

type addressLoader interface {
	FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Address, error)
}

type stockDecrementer interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, qty int) error
}

// CheckoutInput captures the customer's checkout request.
type CheckoutInput struct {
	AddressID uuid.UUID
	Notes     *string
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) ([]models.Order, error)
}

type service struct {
	tx         txRunner
	validator  lineValidator
	cartRepo   cart.Repository
	ordersRepo orders.Repository
	vendorRepo vendors.Repository
	addresses  addressLoader
	ledger     stockDecrementer
	notifier   notifications.Gateway
	pricing    Pricing
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	validator lineValidator,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	vendorRepo vendors.Repository,
	addresses addressLoader,
	ledger stockDecrementer,
	notifier notifications.Gateway,
	pricing Pricing,
	logg *logger.Logger,
	m *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner is required")
	}
	if validator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart validator is required")
	}
	if cartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository is required")
	}
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository is required")
	}
	if vendorRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendors repository is required")
	}
	if addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "address loader is required")
	}
	if ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory ledger is required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification gateway is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger is required")
	}
	return &service{
		tx:         tx,
		validator:  validator,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		vendorRepo: vendorRepo,
		addresses:  addresses,
		ledger:     ledger,
		notifier:   notifier,
		pricing:    pricing,
		logg:       logg,
		metrics:    m,
	}, nil
}

// vendorPartition groups a customer's validated lines for one vendor.
type vendorPartition struct {
	vendorID uuid.UUID
	lines    []cart.ValidatedLine
}

// Execute turns the customer's cart into one order per vendor, decrements
// stock, and clears the cart, all inside a single transaction. Either every
// vendor order commits or none do. A duplicate order number aborts and the
// whole transaction is retried once with fresh numbers.
func (s *service) Execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}

	lines, err := s.validator.Validate(ctx, customerID)
	if err != nil {
		s.metrics.IncCheckout("rejected")
		return nil, err
	}

	address, err := s.addresses.FindByIDAndCustomer(ctx, input.AddressID, customerID)
	if err != nil {
		s.metrics.IncCheckout("rejected")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading address")
	}

	partitions := partitionByVendor(lines)
	vendorIDs := make([]uuid.UUID, len(partitions))
	for i, p := range partitions {
		vendorIDs[i] = p.vendorID
	}
	vendorsByID, err := s.vendorRepo.FindByIDs(ctx, vendorIDs)
	if err != nil {
		s.metrics.IncCheckout("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading vendors")
	}
	for _, id := range vendorIDs {
		if vendorsByID[id] == nil {
			s.metrics.IncCheckout("failed")
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendor missing for cart product").
				WithDetails(map[string]any{"vendor_id": id})
		}
	}

	var created []models.Order
	for attempt := 0; ; attempt++ {
		created, err = s.commit(ctx, customerID, address.ID, input.Notes, partitions, vendorsByID)
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err, orderNumberIndex) {
			if attempt == 0 {
				s.logg.Warn(s.logg.WithCustomerID(ctx, customerID.String()), "order number collision, retrying checkout transaction")
				continue
			}
			err = pkgerrors.Wrap(pkgerrors.CodeTxConflict, err, "order number collision persisted across retry")
		}
		s.metrics.IncCheckout("failed")
		return nil, err
	}

	s.metrics.IncCheckout("success")
	for i := range created {
		if err := s.notifier.OrderPlaced(ctx, &created[i]); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, created[i].ID.String()), "order placed notification failed")
		}
	}
	return created, nil
}

func (s *service) commit(
	ctx context.Context,
	customerID, addressID uuid.UUID,
	notes *string,
	partitions []vendorPartition,
	vendorsByID map[uuid.UUID]*models.Vendor,
) ([]models.Order, error) {
	var created []models.Order

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)
		now := time.Now().UTC()

		for _, partition := range partitions {
			vendor := vendorsByID[partition.vendorID]
			order := buildOrder(customerID, addressID, notes, partition, vendor, s.pricing, now)

			if _, err := ordersRepo.Create(ctx, order); err != nil {
				if db.IsUniqueViolation(err, orderNumberIndex) {
					return err
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
			}

			for _, line := range partition.lines {
				if err := s.ledger.Decrement(ctx, tx, line.ProductID, line.VariantID, line.Quantity); err != nil {
					return err
				}
			}
			created = append(created, *order)
		}

		if err := cartRepo.DeleteAllByCustomer(ctx, customerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// partitionByVendor groups lines by vendor, preserving first-seen order so
// repeated checkouts of the same cart yield a stable order sequence.
func partitionByVendor(lines []cart.ValidatedLine) []vendorPartition {
	index := map[uuid.UUID]int{}
	var partitions []vendorPartition
	for _, line := range lines {
		i, ok := index[line.VendorID]
		if !ok {
			i = len(partitions)
			index[line.VendorID] = i
			partitions = append(partitions, vendorPartition{vendorID: line.VendorID})
		}
		partitions[i].lines = append(partitions[i].lines, line)
	}
	return partitions
}

func buildOrder(
	customerID, addressID uuid.UUID,
	notes *string,
	partition vendorPartition,
	vendor *models.Vendor,
	pricing Pricing,
	now time.Time,
) *models.Order {
	var subtotal int64
	items := make([]models.OrderItem, len(partition.lines))
	for i, line := range partition.lines {
		subtotal += line.UnitPriceCents * int64(line.Quantity)
		items[i] = models.OrderItem{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			ProductName:    line.ProductName,
			VariantName:    line.VariantName,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
		}
	}

	tax := pricing.TaxCents(subtotal)
	shipping := pricing.ShippingCents()
	commission := CommissionCents(subtotal, vendor.CommissionRate)

	return &models.Order{
		ID:                uuid.New(),
		OrderNumber:       ordernum.Generate(now),
		CustomerID:        customerID,
		VendorID:          vendor.ID,
		AddressID:         addressID,
		SubtotalCents:     subtotal,
		TaxCents:          tax,
		ShippingCostCents: shipping,
		CommissionCents:   commission,
		TotalCents:        subtotal + tax + shipping,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusPending,
		Notes:             notes,
		Items:             items,
	}
}
