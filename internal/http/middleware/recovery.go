package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/woodline/crm-api/internal/domain"
	"go.uber.org/zap"
)

// Recovery middleware recovers from panics in handlers, logs the stack trace
// and returns a 500 instead of dropping the connection.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						// The connection is gone; let the server handle it.
						panic(rec)
					}

					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(domain.APIError{
						Type:   domain.ErrorTypeInternal,
						Title:  http.StatusText(http.StatusInternalServerError),
						Status: http.StatusInternalServerError,
						Detail: "An internal error occurred",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
