// Package identity answers "who is making this request" for the note layer.
package identity

import (
	"context"
)

// Resolver resolves the authenticated user of the current request. An empty
// id with a nil error means the request is anonymous.
type Resolver interface {
	ResolveCurrentUser(ctx context.Context) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (string, error)

func (f ResolverFunc) ResolveCurrentUser(ctx context.Context) (string, error) {
	return f(ctx)
}

type contextKey struct{}

type clientIPKey struct{}

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserFrom returns the user id stored by WithUser, or "".
func UserFrom(ctx context.Context) string {
	userID, _ := ctx.Value(contextKey{}).(string)
	return userID
}

// WithClientIP returns a context carrying the caller's network address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFrom returns the address stored by WithClientIP, or "".
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// ContextResolver reads the id that authentication middleware stored in the
// request context.
type ContextResolver struct{}

func (ContextResolver) ResolveCurrentUser(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return UserFrom(ctx), nil
}
