package refunds

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/furnhaus/furnhaus-backend/internal/orders"
	"github.com/furnhaus/furnhaus-backend/pkg/auth"
	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	"github.com/furnhaus/furnhaus-backend/pkg/enums"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubProcessor struct {
	params []*stripe.RefundCreateParams
	err    error
}

func (s *stubProcessor) CreateRefund(ctx context.Context, params *stripe.RefundCreateParams) (*stripe.Refund, error) {
	s.params = append(s.params, params)
	if s.err != nil {
		return nil, s.err
	}
	return &stripe.Refund{ID: "re_" + uuid.NewString()[:8]}, nil
}

type stubGateway struct {
	refunded []int64
}

func (s *stubGateway) OrderPlaced(ctx context.Context, order *models.Order) error      { return nil }
func (s *stubGateway) OrderCancelled(ctx context.Context, order *models.Order) error   { return nil }
func (s *stubGateway) OrderShipped(ctx context.Context, order *models.Order) error     { return nil }
func (s *stubGateway) PaymentSucceeded(ctx context.Context, order *models.Order) error { return nil }
func (s *stubGateway) PaymentFailed(ctx context.Context, order *models.Order) error    { return nil }

func (s *stubGateway) OrderRefunded(ctx context.Context, order *models.Order, amountCents int64) error {
	s.refunded = append(s.refunded, amountCents)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			order_number TEXT NOT NULL UNIQUE,
			customer_id TEXT NOT NULL,
			vendor_id TEXT NOT NULL,
			address_id TEXT NOT NULL,
			subtotal_cents INTEGER NOT NULL,
			tax_cents INTEGER NOT NULL DEFAULT 0,
			shipping_cost_cents INTEGER NOT NULL DEFAULT 0,
			commission_cents INTEGER NOT NULL DEFAULT 0,
			total_cents INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			payment_status TEXT NOT NULL DEFAULT 'PENDING',
			payment_intent_id TEXT,
			refunded_cents INTEGER NOT NULL DEFAULT 0,
			tracking_number TEXT,
			carrier TEXT,
			notes TEXT,
			cancelled_at DATETIME,
			delivered_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			variant_id TEXT,
			product_name TEXT NOT NULL,
			variant_name TEXT,
			unit_price_cents INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			created_at DATETIME
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, gdb.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func newTestService(t *testing.T, gdb *gorm.DB, processor *stubProcessor) (Service, orders.Repository, *stubGateway) {
	t.Helper()

	repo := orders.NewRepository(gdb)
	gateway := &stubGateway{}
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})

	svc, err := NewService(repo, &testTxRunner{db: gdb}, processor, gateway, logg, nil)
	require.NoError(t, err)
	return svc, repo, gateway
}

func seedPaidOrder(t *testing.T, repo orders.Repository, totalCents, refundedCents int64) *models.Order {
	t.Helper()

	intentID := "pi_" + uuid.NewString()[:8]
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     "ORD-TEST-" + uuid.NewString()[:8],
		CustomerID:      uuid.New(),
		VendorID:        uuid.New(),
		AddressID:       uuid.New(),
		SubtotalCents:   totalCents,
		TotalCents:      totalCents,
		Status:          enums.OrderStatusConfirmed,
		PaymentStatus:   enums.PaymentStatusSucceeded,
		PaymentIntentID: &intentID,
		RefundedCents:   refundedCents,
	}
	_, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return order
}

func adminActor() Actor {
	return Actor{Role: auth.RoleAdmin}
}

func vendorActor(vendorID uuid.UUID) Actor {
	return Actor{Role: auth.RoleVendor, VendorID: &vendorID}
}

func TestFullRefund(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo, gateway := newTestService(t, gdb, processor)

	order := seedPaidOrder(t, repo, 23100, 0)

	result, err := svc.Refund(context.Background(), adminActor(), Input{OrderID: order.ID})
	require.NoError(t, err)
	require.Equal(t, int64(23100), result.AmountCents)
	require.Equal(t, int64(23100), result.TotalRefundedCents)
	require.Equal(t, enums.PaymentStatusRefunded, result.PaymentStatus)
	require.Equal(t, enums.OrderStatusRefunded, result.OrderStatus)

	require.Len(t, processor.params, 1)
	require.Equal(t, *order.PaymentIntentID, *processor.params[0].PaymentIntent)
	require.Equal(t, int64(23100), *processor.params[0].Amount)

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusRefunded, stored.PaymentStatus)
	require.Equal(t, enums.OrderStatusRefunded, stored.Status)
	require.Equal(t, int64(23100), stored.RefundedCents)

	require.Equal(t, []int64{23100}, gateway.refunded)
}

func TestPartialRefundKeepsStatuses(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo, _ := newTestService(t, gdb, processor)

	order := seedPaidOrder(t, repo, 23100, 0)

	amount := int64(5000)
	result, err := svc.Refund(context.Background(), adminActor(), Input{OrderID: order.ID, AmountCents: &amount})
	require.NoError(t, err)
	require.Equal(t, int64(5000), result.AmountCents)
	require.Equal(t, int64(5000), result.TotalRefundedCents)
	require.Equal(t, enums.PaymentStatusSucceeded, result.PaymentStatus)
	require.Equal(t, enums.OrderStatusConfirmed, result.OrderStatus)

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusSucceeded, stored.PaymentStatus)
	require.Equal(t, int64(5000), stored.RefundedCents)
}

func TestCumulativePartialRefundsReachFull(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo, _ := newTestService(t, gdb, processor)

	order := seedPaidOrder(t, repo, 10000, 0)

	first := int64(4000)
	_, err := svc.Refund(context.Background(), adminActor(), Input{OrderID: order.ID, AmountCents: &first})
	require.NoError(t, err)

	// nil amount refunds the remainder
	result, err := svc.Refund(context.Background(), adminActor(), Input{OrderID: order.ID})
	require.NoError(t, err)
	require.Equal(t, int64(6000), result.AmountCents)
	require.Equal(t, enums.PaymentStatusRefunded, result.PaymentStatus)

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10000), stored.RefundedCents)
	require.Equal(t, enums.OrderStatusRefunded, stored.Status)
}

func TestRefundRejectsOverRemaining(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo, _ := newTestService(t, gdb, processor)

	order := seedPaidOrder(t, repo, 10000, 7000)

	amount := int64(5000)
	_, err := svc.Refund(context.Background(), adminActor(), Input{OrderID: order.ID, AmountCents: &amount})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	// bound check happens before any processor call
	require.Empty(t, processor.params)
}

func TestRefundRejectsUnpaidOrder(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo, _ := newTestService(t, gdb, processor)

	order := seedPaidOrder(t, repo, 10000, 0)
	require.NoError(t, repo.Update(context.Background(), order.ID, map[string]any{
		"payment_status": enums.PaymentStatusProcessing,
	}))

	_, err := svc.Refund(context.Background(), adminActor(), Input{OrderID: order.ID})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	require.Empty(t, processor.params)
}

func TestRefundVendorOwnership(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo, _ := newTestService(t, gdb, processor)

	order := seedPaidOrder(t, repo, 10000, 0)

	// owning vendor may refund
	_, err := svc.Refund(context.Background(), vendorActor(order.VendorID), Input{OrderID: order.ID})
	require.NoError(t, err)

	other := seedPaidOrder(t, repo, 10000, 0)
	_, err = svc.Refund(context.Background(), vendorActor(order.VendorID), Input{OrderID: other.ID})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestRefundRejectsCustomerRole(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo, _ := newTestService(t, gdb, processor)

	order := seedPaidOrder(t, repo, 10000, 0)

	_, err := svc.Refund(context.Background(), Actor{Role: auth.RoleCustomer}, Input{OrderID: order.ID})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestRefundProcessorFailureLeavesStateUntouched(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{err: errors.New("stripe unavailable")}
	svc, repo, gateway := newTestService(t, gdb, processor)

	order := seedPaidOrder(t, repo, 10000, 0)

	_, err := svc.Refund(context.Background(), adminActor(), Input{OrderID: order.ID})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeDependency, appErr.Code())

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), stored.RefundedCents)
	require.Equal(t, enums.PaymentStatusSucceeded, stored.PaymentStatus)
	require.Empty(t, gateway.refunded)
}

func TestRefundUnknownOrder(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, _, _ := newTestService(t, gdb, processor)

	_, err := svc.Refund(context.Background(), adminActor(), Input{OrderID: uuid.New()})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
