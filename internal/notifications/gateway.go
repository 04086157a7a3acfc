package notifications

import (
	"context"

	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	"github.com/furnhaus/furnhaus-backend/pkg/enums"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
)

// Gateway is the outbound notification surface. Implementations must be
// safe to call after the triggering transaction commits; callers treat
// every method as best-effort and log failures instead of propagating them.
type Gateway interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	OrderCancelled(ctx context.Context, order *models.Order) error
	OrderShipped(ctx context.Context, order *models.Order) error
	PaymentSucceeded(ctx context.Context, order *models.Order) error
	PaymentFailed(ctx context.Context, order *models.Order) error
	OrderRefunded(ctx context.Context, order *models.Order, amountCents int64) error
}

type dbGateway struct {
	repo Repository
}

// NewDBGateway builds a Gateway that persists notices as rows. A separate
// delivery worker drains the table; the core never blocks on delivery.
func NewDBGateway(repo Repository) (Gateway, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository is required")
	}
	return &dbGateway{repo: repo}, nil
}

func (g *dbGateway) OrderPlaced(ctx context.Context, order *models.Order) error {
	vendorID := order.VendorID
	return g.write(ctx, &models.Notification{
		VendorID: &vendorID,
		OrderID:  &order.ID,
		Type:     enums.NotificationOrderPlaced,
		Payload:  orderPayload(order),
	})
}

func (g *dbGateway) OrderCancelled(ctx context.Context, order *models.Order) error {
	vendorID := order.VendorID
	return g.write(ctx, &models.Notification{
		VendorID: &vendorID,
		OrderID:  &order.ID,
		Type:     enums.NotificationOrderCancelled,
		Payload:  orderPayload(order),
	})
}

func (g *dbGateway) OrderShipped(ctx context.Context, order *models.Order) error {
	customerID := order.CustomerID
	payload := orderPayload(order)
	if order.TrackingNumber != nil {
		payload["tracking_number"] = *order.TrackingNumber
	}
	if order.Carrier != nil {
		payload["carrier"] = *order.Carrier
	}
	return g.write(ctx, &models.Notification{
		CustomerID: &customerID,
		OrderID:    &order.ID,
		Type:       enums.NotificationOrderShipped,
		Payload:    payload,
	})
}

func (g *dbGateway) PaymentSucceeded(ctx context.Context, order *models.Order) error {
	customerID := order.CustomerID
	return g.write(ctx, &models.Notification{
		CustomerID: &customerID,
		OrderID:    &order.ID,
		Type:       enums.NotificationPaymentSucceeded,
		Payload:    orderPayload(order),
	})
}

func (g *dbGateway) PaymentFailed(ctx context.Context, order *models.Order) error {
	customerID := order.CustomerID
	payload := orderPayload(order)
	payload["payment_status"] = enums.PaymentStatusFailed.String()
	return g.write(ctx, &models.Notification{
		CustomerID: &customerID,
		OrderID:    &order.ID,
		Type:       enums.NotificationPaymentFailed,
		Payload:    payload,
	})
}

func (g *dbGateway) OrderRefunded(ctx context.Context, order *models.Order, amountCents int64) error {
	customerID := order.CustomerID
	payload := orderPayload(order)
	payload["refund_amount_cents"] = amountCents
	return g.write(ctx, &models.Notification{
		CustomerID: &customerID,
		OrderID:    &order.ID,
		Type:       enums.NotificationOrderRefunded,
		Payload:    payload,
	})
}

func (g *dbGateway) write(ctx context.Context, notification *models.Notification) error {
	if _, err := g.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing notification")
	}
	return nil
}

func orderPayload(order *models.Order) map[string]any {
	return map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status.String(),
		"total_cents":  order.TotalCents,
	}
}
