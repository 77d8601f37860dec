package container

import "context"

// ── Factory contract ──────────────────────────────────────────────────────────

// Release tears down a service acquired by an acquire/release factory.
type Release func(ctx context.Context) error

// Factory is the two-phase contract every registration satisfies.
//
// Acquire builds the service. A non-nil Release is pushed on the resolving
// Container's release stack and runs when that Container closes. Factories
// that report NeedsContext can only be resolved through GetContext.
type Factory interface {
	Acquire(ctx context.Context, c *Container) (svc any, release Release, err error)
	NeedsContext() bool
}

// Func is a direct factory. No release action is recorded.
//
//	reg.Register(container.TypeOf[*Mailer](), container.Func(func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return mail.New(cfg.Mail), nil
//	}))
type Func func(c *Container) (any, error)

func (f Func) Acquire(_ context.Context, c *Container) (any, Release, error) {
	svc, err := f(c)
	return svc, nil, err
}

func (Func) NeedsContext() bool { return false }

// CleanupFunc is an acquire/release factory: the returned func runs when the
// Container closes.
type CleanupFunc func(c *Container) (any, func() error, error)

func (f CleanupFunc) Acquire(_ context.Context, c *Container) (any, Release, error) {
	svc, cleanup, err := f(c)
	if err != nil || cleanup == nil {
		return svc, nil, err
	}
	return svc, func(context.Context) error { return cleanup() }, nil
}

func (CleanupFunc) NeedsContext() bool { return false }

// ContextFunc is a context-bound direct factory.
type ContextFunc func(ctx context.Context, c *Container) (any, error)

func (f ContextFunc) Acquire(ctx context.Context, c *Container) (any, Release, error) {
	svc, err := f(ctx, c)
	return svc, nil, err
}

func (ContextFunc) NeedsContext() bool { return true }

// ContextCleanupFunc is a context-bound acquire/release factory.
//
//	reg.Register(container.TypeOf[*sql.Conn](), container.ContextCleanupFunc(
//	    func(ctx context.Context, c *container.Container) (any, container.Release, error) {
//	        db, err := container.ResolveContext[*sql.DB](ctx, c)
//	        if err != nil {
//	            return nil, nil, err
//	        }
//	        conn, err := db.Conn(ctx)
//	        if err != nil {
//	            return nil, nil, err
//	        }
//	        return conn, func(context.Context) error { return conn.Close() }, nil
//	    }))
type ContextCleanupFunc func(ctx context.Context, c *Container) (any, Release, error)

func (f ContextCleanupFunc) Acquire(ctx context.Context, c *Container) (any, Release, error) {
	return f(ctx, c)
}

func (ContextCleanupFunc) NeedsContext() bool { return true }

type valueFactory struct{ v any }

func (f valueFactory) Acquire(context.Context, *Container) (any, Release, error) {
	return f.v, nil, nil
}

func (valueFactory) NeedsContext() bool { return false }

// Value returns a Factory that always yields v.
func Value(v any) Factory { return valueFactory{v: v} }

// ── Registration ──────────────────────────────────────────────────────────────

// Ping is a health probe. It receives the resolved service.
type Ping func(ctx context.Context, svc any) error

// Registration binds an identity to its factory and optional hooks.
type Registration struct {
	ID              ServiceID
	Factory         Factory
	Ping            Ping
	OnRegistryClose func(ctx context.Context) error

	// Singleton registrations are acquired once by the Registry and shared
	// by every Container.
	Singleton bool
}

// RegisterOption customises a Registration.
type RegisterOption func(*Registration)

// WithPing attaches a health probe.
func WithPing(p Ping) RegisterOption {
	return func(r *Registration) { r.Ping = p }
}

// WithOnRegistryClose attaches a hook that runs when the Registry closes.
func WithOnRegistryClose(fn func(ctx context.Context) error) RegisterOption {
	return func(r *Registration) { r.OnRegistryClose = fn }
}

func newRegistration(id ServiceID, f Factory, opts []RegisterOption) *Registration {
	if id.IsZero() {
		panic("container: register with zero ServiceID")
	}
	if f == nil {
		panic("container: nil factory for " + id.String())
	}
	reg := &Registration{ID: id, Factory: f}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// ── Typed helpers ─────────────────────────────────────────────────────────────

// Provide registers a direct factory for T.
func Provide[T any](r *Registry, fn func(c *Container) (T, error), opts ...RegisterOption) {
	r.Register(TypeOf[T](), Func(func(c *Container) (any, error) { return fn(c) }), opts...)
}

// ProvideCleanup registers an acquire/release factory for T.
func ProvideCleanup[T any](r *Registry, fn func(c *Container) (T, func() error, error), opts ...RegisterOption) {
	r.Register(TypeOf[T](), CleanupFunc(func(c *Container) (any, func() error, error) { return fn(c) }), opts...)
}

// ProvideContext registers a context-bound direct factory for T.
func ProvideContext[T any](r *Registry, fn func(ctx context.Context, c *Container) (T, error), opts ...RegisterOption) {
	r.Register(TypeOf[T](), ContextFunc(func(ctx context.Context, c *Container) (any, error) { return fn(ctx, c) }), opts...)
}

// ProvideContextCleanup registers a context-bound acquire/release factory for T.
func ProvideContextCleanup[T any](r *Registry, fn func(ctx context.Context, c *Container) (T, Release, error), opts ...RegisterOption) {
	r.Register(TypeOf[T](), ContextCleanupFunc(func(ctx context.Context, c *Container) (any, Release, error) { return fn(ctx, c) }), opts...)
}

// ProvideValue registers v under TypeOf[T]().
func ProvideValue[T any](r *Registry, v T, opts ...RegisterOption) {
	r.RegisterValue(TypeOf[T](), v, opts...)
}
