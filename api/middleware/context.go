package middleware

import "context"

type contextKey string

const ctxCartKey contextKey = "cart_key"

// CartKeyFromContext returns the cart key the session middleware bound
// to the request, or "" when no session was established.
func CartKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartKey).(string); ok {
		return v
	}
	return ""
}

// WithCartKey injects the cart key into the context.
func WithCartKey(ctx context.Context, cartKey string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartKey, cartKey)
}
