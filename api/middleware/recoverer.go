package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mayakapoor/aurelia-backend/api/responses"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
)

// Recoverer converts handler panics into a logged 500 response. http.ErrAbortHandler
// is re-raised so the server can abort the connection the way net/http expects.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"panic":  fmt.Sprintf("%v", rec),
						"method": r.Method,
						"path":   r.URL.Path,
					})
					logg.Error(logCtx, "panic recovered in handler", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
