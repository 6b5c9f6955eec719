package roomrent

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Recovery throttling
// and audit events use it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
