package web

import (
	"context"
	"net/http"

	"github.com/commissiondesk/commissiondesk/internal/store"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by the TrustedRealIP middleware
	ua := r.Header.Get("User-Agent")
	ctx = store.ContextWithIPAddress(ctx, ip)
	ctx = store.ContextWithUserAgent(ctx, ua)
	return ctx
}
