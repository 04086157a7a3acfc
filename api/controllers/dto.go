package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
)

type orderItemView struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductName    string     `json:"product_name"`
	VariantName    *string    `json:"variant_name,omitempty"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	Quantity       int        `json:"quantity"`
}

type orderView struct {
	ID                uuid.UUID       `json:"id"`
	OrderNumber       string          `json:"order_number"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	AddressID         uuid.UUID       `json:"address_id"`
	SubtotalCents     int64           `json:"subtotal_cents"`
	TaxCents          int64           `json:"tax_cents"`
	ShippingCostCents int64           `json:"shipping_cost_cents"`
	CommissionCents   int64           `json:"commission_cents"`
	TotalCents        int64           `json:"total_cents"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"payment_status"`
	RefundedCents     int64           `json:"refunded_cents"`
	TrackingNumber    *string         `json:"tracking_number,omitempty"`
	Carrier           *string         `json:"carrier,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at,omitempty"`
	DeliveredAt       *time.Time      `json:"delivered_at,omitempty"`
	Items             []orderItemView `json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
}

func newOrderView(order *models.Order) orderView {
	items := make([]orderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemView{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			ProductName:    item.ProductName,
			VariantName:    item.VariantName,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return orderView{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		VendorID:          order.VendorID,
		AddressID:         order.AddressID,
		SubtotalCents:     order.SubtotalCents,
		TaxCents:          order.TaxCents,
		ShippingCostCents: order.ShippingCostCents,
		CommissionCents:   order.CommissionCents,
		TotalCents:        order.TotalCents,
		Status:            order.Status.String(),
		PaymentStatus:     order.PaymentStatus.String(),
		RefundedCents:     order.RefundedCents,
		TrackingNumber:    order.TrackingNumber,
		Carrier:           order.Carrier,
		Notes:             order.Notes,
		CancelledAt:       order.CancelledAt,
		DeliveredAt:       order.DeliveredAt,
		Items:             items,
		CreatedAt:         order.CreatedAt,
	}
}

func newOrderViews(orders []models.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	return views
}

type cartItemView struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductName    string     `json:"product_name"`
	VariantName    *string    `json:"variant_name,omitempty"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	Quantity       int        `json:"quantity"`
}

func newCartItemView(item *models.CartItem) cartItemView {
	view := cartItemView{
		ID:        item.ID,
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  item.Quantity,
	}
	if item.Product != nil {
		view.ProductName = item.Product.Name
		view.UnitPriceCents = item.Product.PriceCents
	}
	if item.Variant != nil {
		view.VariantName = &item.Variant.Name
		view.UnitPriceCents = item.Variant.EffectivePriceCents(item.Product)
	}
	return view
}

func newCartItemViews(items []models.CartItem) []cartItemView {
	views := make([]cartItemView, 0, len(items))
	for i := range items {
		views = append(views, newCartItemView(&items[i]))
	}
	return views
}

type notificationView struct {
	ID        uuid.UUID      `json:"id"`
	OrderID   *uuid.UUID     `json:"order_id,omitempty"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func newNotificationViews(notices []models.Notification) []notificationView {
	views := make([]notificationView, 0, len(notices))
	for _, n := range notices {
		views = append(views, notificationView{
			ID:        n.ID,
			OrderID:   n.OrderID,
			Type:      string(n.Type),
			Payload:   n.Payload,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}
	return views
}
