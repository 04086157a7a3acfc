package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/furnhaus/furnhaus-backend/api/responses"
	"github.com/furnhaus/furnhaus-backend/api/validators"
	checkoutsvc "github.com/furnhaus/furnhaus-backend/internal/checkout"
	paymentsvc "github.com/furnhaus/furnhaus-backend/internal/payments"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
	Notes     *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type checkoutPaymentView struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

type checkoutOrderView struct {
	orderView
	Payment *checkoutPaymentView `json:"payment,omitempty"`
}

// Checkout converts the cart into per-vendor orders and kicks off payment
// intents for each. Intent creation is best effort at this point: an order
// without a payment block can be (re)initiated through the payment endpoint.
func Checkout(svc checkoutsvc.Service, payments paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.Execute(r.Context(), customerID, checkoutsvc.CheckoutInput{
			AddressID: payload.AddressID,
			Notes:     payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]checkoutOrderView, 0, len(orders))
		for i := range orders {
			view := checkoutOrderView{orderView: newOrderView(&orders[i])}
			if payments != nil {
				intent, err := payments.InitiatePayment(r.Context(), customerID, orders[i].ID)
				if err != nil {
					if logg != nil {
						logg.Warn(logg.WithOrderID(r.Context(), orders[i].ID.String()), "payment initiation after checkout failed")
					}
				} else {
					view.Payment = &checkoutPaymentView{
						IntentID:     intent.IntentID,
						ClientSecret: intent.ClientSecret,
					}
					view.PaymentStatus = intent.PaymentStatus.String()
				}
			}
			views = append(views, view)
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, views)
	}
}
