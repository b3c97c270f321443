package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mayakapoor/aurelia-backend/api/responses"
	"github.com/mayakapoor/aurelia-backend/api/validators"
	addresssvc "github.com/mayakapoor/aurelia-backend/internal/address"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
)

func ListAddresses(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		addresses, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"addresses": addresses})
	}
}

func CreateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		var payload addresssvc.UpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.Create(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, address)
	}
}

func UpdateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		addressID, ok := pathUUID(w, r, logg, chi.URLParam(r, "addressID"), "address id")
		if !ok {
			return
		}

		var payload addresssvc.UpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.Update(r.Context(), userID, addressID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, address)
	}
}

func DeleteAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		addressID, ok := pathUUID(w, r, logg, chi.URLParam(r, "addressID"), "address id")
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func SetDefaultAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		addressID, ok := pathUUID(w, r, logg, chi.URLParam(r, "addressID"), "address id")
		if !ok {
			return
		}

		if err := svc.SetDefaultShipping(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"default_shipping": true})
	}
}
