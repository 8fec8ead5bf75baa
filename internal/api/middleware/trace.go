package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// traceHeader is honored on inbound requests and echoed on every
// response so callers can tie a swap execution back to its logs.
const traceHeader = "X-Trace-ID"

// TraceMiddleware attaches a trace id to the request context, minting
// one when the caller did not supply a header.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx := contextWithTraceID(r.Context(), traceID)
		w.Header().Set(traceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceContextKey, traceID)
}
