package payments

import (
	"context"
	"io"
	"testing"

	"github.com/furnhaus/furnhaus-backend/internal/orders"
	"github.com/furnhaus/furnhaus-backend/internal/vendors"
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

type stubProcessor struct {
	createdParams []*stripe.PaymentIntentCreateParams
	createResult  *stripe.PaymentIntent
	createErr     error

	retrieved      []string
	retrieveResult *stripe.PaymentIntent
	retrieveErr    error
}

func (s *stubProcessor) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	s.createdParams = append(s.createdParams, params)
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.createResult != nil {
		return s.createResult, nil
	}
	return &stripe.PaymentIntent{
		ID:           "pi_" + uuid.NewString()[:8],
		ClientSecret: "secret_" + uuid.NewString()[:8],
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
	}, nil
}

func (s *stubProcessor) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	s.retrieved = append(s.retrieved, id)
	if s.retrieveErr != nil {
		return nil, s.retrieveErr
	}
	return s.retrieveResult, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE vendors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			commission_rate TEXT NOT NULL DEFAULT '0.10',
			stripe_account_id TEXT,
			onboarding_complete INTEGER NOT NULL DEFAULT 0,
			payouts_enabled INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
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

func newTestService(t *testing.T, gdb *gorm.DB, processor *stubProcessor) (Service, orders.Repository) {
	t.Helper()

	repo := orders.NewRepository(gdb)
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})

	svc, err := NewService(repo, vendors.NewRepository(gdb), processor, logg)
	require.NoError(t, err)
	return svc, repo
}

func seedVendor(t *testing.T, gdb *gorm.DB, payoutReady bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	var account *string
	onboarded, payouts := 0, 0
	if payoutReady {
		acct := "acct_" + id.String()[:8]
		account = &acct
		onboarded, payouts = 1, 1
	}
	require.NoError(t, gdb.Exec(
		`INSERT INTO vendors (id, name, email, commission_rate, stripe_account_id, onboarding_complete, payouts_enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, "Vendor", "vendor@example.com", "0.10", account, onboarded, payouts,
	).Error)
	return id
}

func seedOrder(t *testing.T, repo orders.Repository, vendorID uuid.UUID, paymentStatus enums.PaymentStatus, intentID *string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     "ORD-TEST-" + uuid.NewString()[:8],
		CustomerID:      uuid.New(),
		VendorID:        vendorID,
		AddressID:       uuid.New(),
		SubtotalCents:   20000,
		TaxCents:        1600,
		CommissionCents: 2000,
		TotalCents:      23100,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   paymentStatus,
		PaymentIntentID: intentID,
	}
	_, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return order
}

func TestInitiatePaymentSplitRouting(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo := newTestService(t, gdb, processor)

	vendorID := seedVendor(t, gdb, true)
	order := seedOrder(t, repo, vendorID, enums.PaymentStatusPending, nil)

	result, err := svc.InitiatePayment(context.Background(), order.CustomerID, order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, result.IntentID)
	require.NotEmpty(t, result.ClientSecret)
	require.Equal(t, enums.PaymentStatusProcessing, result.PaymentStatus)
	require.Equal(t, int64(23100), result.AmountCents)

	require.Len(t, processor.createdParams, 1)
	params := processor.createdParams[0]
	require.Equal(t, int64(23100), *params.Amount)
	require.NotNil(t, params.ApplicationFeeAmount)
	require.Equal(t, int64(2000), *params.ApplicationFeeAmount)
	require.NotNil(t, params.TransferData)
	require.NotEmpty(t, *params.TransferData.Destination)
	require.Equal(t, order.ID.String(), params.Metadata["order_id"])

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentIntentID)
	require.Equal(t, result.IntentID, *stored.PaymentIntentID)
	require.Equal(t, enums.PaymentStatusProcessing, stored.PaymentStatus)
}

func TestInitiatePaymentDirectWhenVendorNotReady(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo := newTestService(t, gdb, processor)

	vendorID := seedVendor(t, gdb, false)
	order := seedOrder(t, repo, vendorID, enums.PaymentStatusPending, nil)

	_, err := svc.InitiatePayment(context.Background(), order.CustomerID, order.ID)
	require.NoError(t, err)

	require.Len(t, processor.createdParams, 1)
	params := processor.createdParams[0]
	require.Nil(t, params.ApplicationFeeAmount)
	require.Nil(t, params.TransferData)
}

func TestInitiatePaymentIdempotentReentry(t *testing.T) {
	gdb := newTestDB(t)

	intentID := "pi_existing"
	processor := &stubProcessor{
		retrieveResult: &stripe.PaymentIntent{
			ID:           intentID,
			ClientSecret: "secret_existing",
			Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		},
	}
	svc, repo := newTestService(t, gdb, processor)

	vendorID := seedVendor(t, gdb, true)
	order := seedOrder(t, repo, vendorID, enums.PaymentStatusProcessing, &intentID)

	result, err := svc.InitiatePayment(context.Background(), order.CustomerID, order.ID)
	require.NoError(t, err)
	require.Equal(t, intentID, result.IntentID)
	require.Equal(t, "secret_existing", result.ClientSecret)

	// the existing intent is reused, never recreated
	require.Empty(t, processor.createdParams)
	require.Equal(t, []string{intentID}, processor.retrieved)
}

func TestInitiatePaymentRejectsCompletedIntent(t *testing.T) {
	gdb := newTestDB(t)

	intentID := "pi_done"
	processor := &stubProcessor{
		retrieveResult: &stripe.PaymentIntent{
			ID:     intentID,
			Status: stripe.PaymentIntentStatusSucceeded,
		},
	}
	svc, repo := newTestService(t, gdb, processor)

	vendorID := seedVendor(t, gdb, true)
	order := seedOrder(t, repo, vendorID, enums.PaymentStatusProcessing, &intentID)

	_, err := svc.InitiatePayment(context.Background(), order.CustomerID, order.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestInitiatePaymentRejectsPaidOrder(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo := newTestService(t, gdb, processor)

	vendorID := seedVendor(t, gdb, true)
	order := seedOrder(t, repo, vendorID, enums.PaymentStatusSucceeded, nil)

	_, err := svc.InitiatePayment(context.Background(), order.CustomerID, order.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	require.Empty(t, processor.createdParams)
}

func TestInitiatePaymentRejectsCancelledOrder(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo := newTestService(t, gdb, processor)

	vendorID := seedVendor(t, gdb, true)
	order := seedOrder(t, repo, vendorID, enums.PaymentStatusPending, nil)
	require.NoError(t, repo.Update(context.Background(), order.ID, map[string]any{
		"status": enums.OrderStatusCancelled,
	}))

	_, err := svc.InitiatePayment(context.Background(), order.CustomerID, order.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestInitiatePaymentWrongCustomer(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo := newTestService(t, gdb, processor)

	vendorID := seedVendor(t, gdb, true)
	order := seedOrder(t, repo, vendorID, enums.PaymentStatusPending, nil)

	_, err := svc.InitiatePayment(context.Background(), uuid.New(), order.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestPaymentStatusReadsLocalState(t *testing.T) {
	gdb := newTestDB(t)
	processor := &stubProcessor{}
	svc, repo := newTestService(t, gdb, processor)

	intentID := "pi_status"
	vendorID := seedVendor(t, gdb, true)
	order := seedOrder(t, repo, vendorID, enums.PaymentStatusSucceeded, &intentID)

	status, err := svc.PaymentStatus(context.Background(), order.CustomerID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusSucceeded, status.PaymentStatus)
	require.NotNil(t, status.IntentID)
	require.Equal(t, intentID, *status.IntentID)

	// status reads never hit the processor
	require.Empty(t, processor.retrieved)
	require.Empty(t, processor.createdParams)
}
