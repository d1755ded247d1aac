package ledger

import "context"

type authorizationKey struct{}

// WithAuthorization attaches the caller's Authorization header so stores that
// enforce row-level security can act on the caller's behalf.
func WithAuthorization(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, authorizationKey{}, header)
}

func authorizationFrom(ctx context.Context) string {
	header, _ := ctx.Value(authorizationKey{}).(string)
	return header
}
