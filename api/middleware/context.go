package middleware

import (
	"context"
	"net/http"

	"github.com/curocart/curocart-backend/api/responses"
	pkgerrors "github.com/curocart/curocart-backend/pkg/errors"
	"github.com/curocart/curocart-backend/pkg/logger"
)

type contextKey string

const ctxCustomerID contextKey = "customer_id"

// customerIDHeader carries the authenticated customer identity resolved by
// the gateway in front of this service.
const customerIDHeader = "X-Customer-Id"

func CustomerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerID).(string); ok {
		return v
	}
	return ""
}

// WithCustomerID injects the customer identifier into the context.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerID, customerID)
}

// CustomerContext requires the customer identity header on every request it
// guards and attaches it to both the context and the request logger.
func CustomerContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID := r.Header.Get(customerIDHeader)
			if customerID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "customer context missing"))
				return
			}

			ctx := WithCustomerID(r.Context(), customerID)
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, customerID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
