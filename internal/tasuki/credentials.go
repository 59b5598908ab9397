package tasuki

import "context"

type bearerKey struct{}

// WithBearer returns a context whose upstream calls authenticate as token
// instead of the client's static Token. A blank token leaves ctx unchanged.
func WithBearer(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFrom returns the caller credential carried by ctx, if any.
func BearerFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(bearerKey{}).(string)
	return tok, ok && tok != ""
}
