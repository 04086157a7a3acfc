package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/furnhaus/furnhaus-backend/api/middleware"
	"github.com/furnhaus/furnhaus-backend/api/responses"
	"github.com/furnhaus/furnhaus-backend/api/validators"
	ordersvc "github.com/furnhaus/furnhaus-backend/internal/orders"
	refundsvc "github.com/furnhaus/furnhaus-backend/internal/refunds"
	"github.com/furnhaus/furnhaus-backend/pkg/auth"
	"github.com/furnhaus/furnhaus-backend/pkg/enums"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
)

type vendorStatusRequest struct {
	Status         string  `json:"status" validate:"required,oneof=PROCESSING SHIPPED DELIVERED"`
	TrackingNumber *string `json:"tracking_number,omitempty" validate:"omitempty,min=1,max=128"`
	Carrier        *string `json:"carrier,omitempty" validate:"omitempty,min=1,max=64"`
}

type refundRequest struct {
	AmountCents *int64  `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
	Reason      *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type refundView struct {
	OrderID            uuid.UUID `json:"order_id"`
	RefundID           string    `json:"refund_id"`
	AmountCents        int64     `json:"amount_cents"`
	TotalRefundedCents int64     `json:"total_refunded_cents"`
	PaymentStatus      string    `json:"payment_status"`
	OrderStatus        string    `json:"order_status"`
}

// VendorListOrders returns the vendor's orders, newest first.
func VendorListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, err := vendorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListForVendor(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderViews(orders))
	}
}

// VendorUpdateOrderStatus advances a vendor order through its fulfillment
// stages.
func VendorUpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, err := vendorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload vendorStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateVendorStatus(r.Context(), ordersvc.VendorStatusInput{
			OrderID:        orderID,
			VendorID:       vendorID,
			Status:         status,
			TrackingNumber: payload.TrackingNumber,
			Carrier:        payload.Carrier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// RefundOrder issues a full or partial refund. Vendors refund their own
// orders; admins refund any.
func RefundOrder(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}

		role, ok := middleware.RoleFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		actor := refundsvc.Actor{Role: role}
		if role == auth.RoleVendor {
			vendorID, err := vendorIDFromContext(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			actor.VendorID = &vendorID
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Refund(r.Context(), actor, refundsvc.Input{
			OrderID:     orderID,
			AmountCents: payload.AmountCents,
			Reason:      payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, refundView{
			OrderID:            result.OrderID,
			RefundID:           result.RefundID,
			AmountCents:        result.AmountCents,
			TotalRefundedCents: result.TotalRefundedCents,
			PaymentStatus:      result.PaymentStatus.String(),
			OrderStatus:        result.OrderStatus.String(),
		})
	}
}
