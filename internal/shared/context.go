package shared

import "context"

type callerContextKey struct{}

// ContextWithCaller stores the authenticated caller address in context.
func ContextWithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext extracts the caller address, empty when unauthenticated.
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerContextKey{}).(string)
	return caller
}
