package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mayakapoor/aurelia-backend/api/middleware"
	"github.com/mayakapoor/aurelia-backend/api/responses"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
)

// currentUserID pulls the authenticated user from the request context,
// writing a 401 when the auth middleware did not run or the token was empty.
func currentUserID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID := middleware.UserUUIDFromContext(r.Context())
	if userID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a chi URL parameter as a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, logg *logger.Logger, raw, field string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field))
		return uuid.Nil, false
	}
	return id, true
}
