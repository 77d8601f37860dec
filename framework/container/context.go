package container

import "context"

// contextKey is unexported so no other package can collide with it.
type contextKey struct{}

// WithContainer returns a copy of ctx carrying c.
//
//	ctx = container.WithContainer(r.Context(), container.New(reg))
//	next.ServeHTTP(w, r.WithContext(ctx))
func WithContainer(ctx context.Context, c *Container) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the Container stored by WithContainer.
func FromContext(ctx context.Context) (*Container, bool) {
	c, ok := ctx.Value(contextKey{}).(*Container)
	return c, ok && c != nil
}

// MustFromContext is FromContext for code that runs behind an adapter which
// always installs a Container.
func MustFromContext(ctx context.Context) *Container {
	c, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoContainer)
	}
	return c
}

// ResolveFrom resolves T from the Container carried by ctx.
func ResolveFrom[T any](ctx context.Context) (T, error) {
	c, ok := FromContext(ctx)
	if !ok {
		var zero T
		return zero, ErrNoContainer
	}
	return ResolveContext[T](ctx, c)
}
