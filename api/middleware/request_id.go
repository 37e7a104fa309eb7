package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/waynejunj/prosperv1/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID carries an inbound correlation id through the log context, or
// mints one when the caller sent none. The id is echoed in the response.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
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
