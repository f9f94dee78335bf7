package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/curocart/curocart-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"

	// Gateway-supplied ids beyond this length are replaced; they would bloat
	// every log line of the request.
	maxRequestIDLen = 64
)

// RequestID accepts the gateway's request id or mints one, echoes it on the
// response, and attaches it to the request logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
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
