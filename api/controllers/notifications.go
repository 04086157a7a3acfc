package controllers

import (
	"net/http"

	"github.com/furnhaus/furnhaus-backend/api/responses"
	"github.com/furnhaus/furnhaus-backend/api/validators"
	"github.com/furnhaus/furnhaus-backend/internal/notifications"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// CustomerNotifications lists the customer's recent notices.
func CustomerNotifications(repo notifications.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultNotificationLimit, 1, maxNotificationLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notices, err := repo.ListByCustomer(r.Context(), customerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing notifications"))
			return
		}
		responses.WriteSuccess(w, newNotificationViews(notices))
	}
}

// VendorNotifications lists the vendor's recent notices.
func VendorNotifications(repo notifications.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository unavailable"))
			return
		}

		vendorID, err := vendorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultNotificationLimit, 1, maxNotificationLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notices, err := repo.ListByVendor(r.Context(), vendorID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing notifications"))
			return
		}
		responses.WriteSuccess(w, newNotificationViews(notices))
	}
}
