package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/furnhaus/furnhaus-backend/api/responses"
	ordersvc "github.com/furnhaus/furnhaus-backend/internal/orders"
	paymentsvc "github.com/furnhaus/furnhaus-backend/internal/payments"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
)

// ListOrders returns the customer's orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListForCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderViews(orders))
	}
}

// OrderDetail returns one order the customer owns.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, orderID, err := customerAndOrderIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// CancelOrder cancels a pending order and restores its stock.
func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, orderID, err := customerAndOrderIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

type paymentIntentView struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	IntentID      string    `json:"intent_id"`
	ClientSecret  string    `json:"client_secret"`
	PaymentStatus string    `json:"payment_status"`
	AmountCents   int64     `json:"amount_cents"`
}

// InitiatePayment creates (or resumes) the payment intent for an order.
func InitiatePayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		customerID, orderID, err := customerAndOrderIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.InitiatePayment(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentIntentView{
			OrderID:       result.OrderID,
			OrderNumber:   result.OrderNumber,
			IntentID:      result.IntentID,
			ClientSecret:  result.ClientSecret,
			PaymentStatus: result.PaymentStatus.String(),
			AmountCents:   result.AmountCents,
		})
	}
}

type paymentStatusView struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentStatus string    `json:"payment_status"`
	IntentID      *string   `json:"intent_id,omitempty"`
	RefundedCents int64     `json:"refunded_cents"`
}

// PaymentStatus reports the locally reconciled payment state of an order.
func PaymentStatus(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		customerID, orderID, err := customerAndOrderIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PaymentStatus(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentStatusView{
			OrderID:       result.OrderID,
			PaymentStatus: result.PaymentStatus.String(),
			IntentID:      result.IntentID,
			RefundedCents: result.RefundedCents,
		})
	}
}

func customerAndOrderIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	customerID, err := customerIDFromContext(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	orderID, err := parseUUIDParam(r, "orderId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return customerID, orderID, nil
}
