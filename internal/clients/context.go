package clients

import "context"

type ctxKey int

const (
	bearerTokenKey ctxKey = iota
	requestIDKey
)

// WithBearerToken stores the caller's token so outgoing calls act on their behalf.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey, token)
}

func BearerTokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(bearerTokenKey).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
