package core

import "context"

type contextKey string

const ctxKeyClientIP contextKey = "import_client_ip"

// ContextWithClientIP records the requesting client's address so that the
// import history can attribute the import.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ClientIPFromContext returns the address set by ContextWithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientIP).(string); ok {
		return v
	}
	return ""
}
