package container

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ── State ─────────────────────────────────────────────────────────────────────

// State is the lifecycle state of a Container.
type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container resolves services for one unit of work (typically one request).
//
// It caches every instance it builds, so asking twice for the same identity
// returns the same instance, and records release actions that run in reverse
// acquisition order on Close.
//
// A Container belongs to the flow that created it. Goroutines of that flow may
// resolve different identities concurrently; resolving one identity from
// several goroutines at once is a caller error and is reported as
// ErrCircularDependency.
type Container struct {
	id       string
	registry *Registry

	mu    sync.Mutex
	state State

	// id → local binding shadowing the registry
	overrides map[ServiceID]*Registration

	// id → resolved instance
	instances map[ServiceID]any

	// release actions in acquisition order
	releases []releaseEntry

	// ids whose factories are currently running
	resolving map[ServiceID]bool

	// singletons under construction when this Container is a singleton's
	// resolver; fixed at creation
	building map[ServiceID]bool
}

// New creates an open Container resolving against r.
func New(r *Registry) *Container {
	if r == nil {
		panic("container: New with nil registry")
	}
	return &Container{
		id:        uuid.NewString(),
		registry:  r,
		overrides: make(map[ServiceID]*Registration),
		instances: make(map[ServiceID]any),
		resolving: make(map[ServiceID]bool),
	}
}

// ID returns the random identifier of this Container, used in logs.
func (c *Container) ID() string { return c.id }

// Registry returns the registry this Container resolves against.
func (c *Container) Registry() *Registry { return c.registry }

// State returns the current lifecycle state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ── Overrides ─────────────────────────────────────────────────────────────────

// RegisterLocalValue makes id resolve to v in this Container only.
func (c *Container) RegisterLocalValue(id ServiceID, v any, opts ...RegisterOption) {
	c.RegisterLocalFactory(id, Value(v), opts...)
}

// RegisterLocalFactory binds id to f in this Container only. The Registry is
// untouched. A cached instance for id is forgotten so the override takes
// effect immediately. Has no effect once the Container is closing.
func (c *Container) RegisterLocalFactory(id ServiceID, f Factory, opts ...RegisterOption) {
	reg := newRegistration(id, f, opts)
	reg.Singleton = false

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return
	}
	c.overrides[id] = reg
	delete(c.instances, id)
}

// Forget drops the cached instance for id. Its release action, if any, still
// runs on Close.
func (c *Container) Forget(id ServiceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, id)
}

// Has reports whether id can be resolved by this Container.
func (c *Container) Has(id ServiceID) bool {
	c.mu.Lock()
	_, local := c.overrides[id]
	c.mu.Unlock()
	return local || c.registry.Has(id)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves id. Context-bound factories are rejected with
// ErrContextRequired; use GetContext for those.
func (c *Container) Get(id ServiceID) (any, error) {
	return c.get(context.Background(), id, false)
}

// GetContext resolves id, passing ctx to context-bound factories.
func (c *Container) GetContext(ctx context.Context, id ServiceID) (any, error) {
	return c.get(ctx, id, true)
}

// GetMany resolves ids in order and stops at the first error.
func (c *Container) GetMany(ctx context.Context, ids ...ServiceID) ([]any, error) {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		svc, err := c.GetContext(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}

func (c *Container) get(ctx context.Context, id ServiceID, withContext bool) (any, error) {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil, ErrContainerClosed
	}
	if svc, ok := c.instances[id]; ok {
		c.mu.Unlock()
		return svc, nil
	}
	reg, local := c.overrides[id]
	c.mu.Unlock()

	if !local {
		var ok bool
		if reg, ok = c.registry.lookup(id); !ok {
			return nil, &ServiceNotFoundError{ID: id}
		}
	}
	if !withContext && reg.Factory.NeedsContext() {
		return nil, fmt.Errorf("%w: %s", ErrContextRequired, id)
	}
	if reg.Singleton && c.building[id] {
		return nil, fmt.Errorf("%w: %s", ErrCircularDependency, id)
	}

	c.mu.Lock()
	if c.resolving[id] {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCircularDependency, id)
	}
	c.resolving[id] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.resolving, id)
		c.mu.Unlock()
	}()

	ctx, finish := c.registry.observer.OnResolve(ctx, id)
	var (
		svc     any
		release Release
		err     error
	)
	if reg.Singleton {
		svc, err = c.registry.acquireSingleton(ctx, c.building, reg)
	} else {
		svc, release, err = acquire(ctx, c, reg)
	}
	if err != nil {
		err = &FactoryError{ID: id, Err: err}
		finish(err)
		c.registry.logger.Debug("service resolution failed",
			zap.Stringer("service", id),
			zap.String("container", c.id),
			zap.Error(err),
		)
		return nil, err
	}
	finish(nil)

	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		if release != nil {
			_ = c.registry.runRelease(ctx, releaseEntry{id: id, release: release}, c.id)
		}
		return nil, ErrContainerClosed
	}
	c.instances[id] = svc
	if release != nil {
		c.releases = append(c.releases, releaseEntry{id: id, release: release})
	}
	c.mu.Unlock()

	return svc, nil
}

// newSingletonScope returns the Container a singleton factory resolves its
// own dependencies through. It never sees the overrides of the Container that
// asked, and whatever it acquires is handed to the Registry afterwards.
func newSingletonScope(r *Registry, building map[ServiceID]bool, id ServiceID) *Container {
	sc := New(r)
	sc.building = make(map[ServiceID]bool, len(building)+1)
	for k := range building {
		sc.building[k] = true
	}
	sc.building[id] = true
	return sc
}

// detach closes c without running its release actions and returns them in
// acquisition order.
func (c *Container) detach() []releaseEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	releases := c.releases
	c.releases = nil
	c.state = StateClosed
	c.instances = make(map[ServiceID]any)
	return releases
}

// acquire runs a factory, converting panics into errors.
func acquire(ctx context.Context, c *Container, reg *Registration) (svc any, release Release, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			svc, release, err = nil, nil, panicError(rec)
		}
	}()
	return reg.Factory.Acquire(ctx, c)
}

// ── Teardown ──────────────────────────────────────────────────────────────────

// Close is CloseContext with a background context.
func (c *Container) Close() error {
	return c.CloseContext(context.Background())
}

// CloseContext runs every recorded release action, last acquired first.
// A failing action does not stop the drain; all failures are returned together
// as a *TeardownError. Only the first call has an effect.
func (c *Container) CloseContext(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	releases := c.releases
	c.releases = nil
	c.mu.Unlock()

	var errs error
	for i := len(releases) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, c.registry.runRelease(ctx, releases[i], c.id))
	}

	c.mu.Lock()
	c.state = StateClosed
	c.instances = make(map[ServiceID]any)
	c.overrides = make(map[ServiceID]*Registration)
	c.mu.Unlock()

	if errs == nil {
		return nil
	}
	return &TeardownError{Causes: multierr.Errors(errs)}
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve gets TypeOf[T]() from c and asserts its type.
//
//	// Instead of: v, err := c.Get(container.TypeOf[*Mailer]()); m := v.(*Mailer)
//	// Write:      m, err := container.Resolve[*Mailer](c)
func Resolve[T any](c *Container) (T, error) {
	id := TypeOf[T]()
	svc, err := c.Get(id)
	return as[T](id, svc, err)
}

// ResolveContext is Resolve through GetContext.
func ResolveContext[T any](ctx context.Context, c *Container) (T, error) {
	id := TypeOf[T]()
	svc, err := c.GetContext(ctx, id)
	return as[T](id, svc, err)
}

// ResolveNamed resolves Named[T](name).
func ResolveNamed[T any](ctx context.Context, c *Container, name string) (T, error) {
	id := Named[T](name)
	svc, err := c.GetContext(ctx, id)
	return as[T](id, svc, err)
}

// MustResolve is like Resolve but panics on error. Meant for wiring code and
// tests where a missing service is a bug.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

func as[T any](id ServiceID, svc any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if svc == nil {
		return zero, nil
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, &ServiceTypeError{
			ID:   id,
			Want: reflect.TypeFor[T]().String(),
			Got:  fmt.Sprintf("%T", svc),
		}
	}
	return typed, nil
}
