package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mayakapoor/aurelia-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	// inbound ids longer than this are replaced, not trusted; a proxy-supplied
	// id is only useful if it is short enough to grep for
	maxRequestIDLen = 64
)

// RequestID propagates the caller's request id or mints one, echoes it on the
// response, and scopes all request logging to it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" || len(reqID) > maxRequestIDLen {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
