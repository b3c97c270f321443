package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mayakapoor/aurelia-backend/api/responses"
	"github.com/mayakapoor/aurelia-backend/api/validators"
	checkoutsvc "github.com/mayakapoor/aurelia-backend/internal/checkout"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
)

// CreateOrder places an order from the shopper's cart. A gateway outage does
// not fail the request; the order is returned with fallback set so the
// storefront can collect payment offline.
func CreateOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		var payload checkoutsvc.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type gatewayOrderRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// CreateGatewayOrder opens a gateway order for an existing pending order,
// used when the storefront retries after an outage fallback. Unlike the
// checkout route, a gateway failure here surfaces as a 502.
func CreateGatewayOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		var payload gatewayOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateGatewayOrder(r.Context(), userID, payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
