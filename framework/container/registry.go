package container

import (
	"context"
	"iter"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registry is the process-wide table of service registrations.
//
// It is safe for concurrent use, but the intended discipline is to configure
// it once at startup and treat it as read-only while Containers resolve
// against it.
type Registry struct {
	mu sync.RWMutex

	// id → registration
	registrations map[ServiceID]*Registration

	// insertion order of ids, for probes and IDs()
	order []ServiceID

	// id → process-wide singleton state
	singletons map[ServiceID]*singletonCell

	// release actions of acquired singletons, in acquisition order
	releases []releaseEntry

	logger   *zap.Logger
	observer Observer
}

type singletonCell struct {
	mu       sync.Mutex
	reg      *Registration
	resolved bool
	svc      any
}

type releaseEntry struct {
	id      ServiceID
	release Release
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used by the Registry and its Containers.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets the telemetry observer used by the Registry and its
// Containers.
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		registrations: make(map[ServiceID]*Registration),
		singletons:    make(map[ServiceID]*singletonCell),
		logger:        zap.NewNop(),
		observer:      noopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Logger returns the registry logger.
func (r *Registry) Logger() *zap.Logger { return r.logger }

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds id to a factory whose instances are scoped to the Container
// that resolves them. A previous registration for id is replaced.
//
//	reg.Register(container.TypeOf[*Session](), container.CleanupFunc(
//	    func(c *container.Container) (any, func() error, error) {
//	        s := store.Open()
//	        return s, s.Close, nil
//	    }), container.WithPing(pingSession))
func (r *Registry) Register(id ServiceID, f Factory, opts ...RegisterOption) {
	r.put(newRegistration(id, f, opts))
}

// RegisterValue binds id to a literal value.
func (r *Registry) RegisterValue(id ServiceID, v any, opts ...RegisterOption) {
	r.put(newRegistration(id, Value(v), opts))
}

// Singleton binds id to a factory that the Registry acquires at most once.
// Every Container receives the same instance; its release action runs when
// the Registry closes.
//
// The factory's Container is private to that one acquisition: it sees only
// registry bindings, never a caller's local overrides, and is closed once the
// factory returns. Dependencies it acquires live as long as the singleton.
func (r *Registry) Singleton(id ServiceID, f Factory, opts ...RegisterOption) {
	reg := newRegistration(id, f, opts)
	reg.Singleton = true
	r.put(reg)
}

func (r *Registry) put(reg *Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.registrations[reg.ID]; !exists {
		r.order = append(r.order, reg.ID)
	}
	r.registrations[reg.ID] = reg
	delete(r.singletons, reg.ID)
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Lookup returns the registration for id, or a *ServiceNotFoundError.
func (r *Registry) Lookup(id ServiceID) (Registration, error) {
	reg, ok := r.lookup(id)
	if !ok {
		return Registration{}, &ServiceNotFoundError{ID: id}
	}
	return *reg, nil
}

func (r *Registry) lookup(id ServiceID) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registrations[id]
	return reg, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id ServiceID) bool {
	_, ok := r.lookup(id)
	return ok
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.registrations)
}

// IDs returns all registered identities in insertion order.
func (r *Registry) IDs() []ServiceID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ServiceID, len(r.order))
	copy(out, r.order)
	return out
}

// HealthProbes yields (id, probe) for every registration that has a probe, in
// insertion order. Each iteration takes a fresh snapshot.
func (r *Registry) HealthProbes() iter.Seq2[ServiceID, Ping] {
	return func(yield func(ServiceID, Ping) bool) {
		r.mu.RLock()
		probes := make([]*Registration, 0, len(r.order))
		for _, id := range r.order {
			if reg := r.registrations[id]; reg.Ping != nil {
				probes = append(probes, reg)
			}
		}
		r.mu.RUnlock()

		for _, reg := range probes {
			if !yield(reg.ID, reg.Ping) {
				return
			}
		}
	}
}

// ── Singletons ────────────────────────────────────────────────────────────────

// acquireSingleton resolves a singleton registration once for the whole
// process. The factory resolves its dependencies through a fresh Container
// with no overrides; the release actions of those dependencies move to the
// Registry and run after the singleton's own, when the Registry closes.
// building holds the singletons already under construction on this chain.
func (r *Registry) acquireSingleton(ctx context.Context, building map[ServiceID]bool, reg *Registration) (any, error) {
	r.mu.Lock()
	cell, ok := r.singletons[reg.ID]
	if !ok || cell.reg != reg {
		cell = &singletonCell{reg: reg}
		r.singletons[reg.ID] = cell
	}
	r.mu.Unlock()

	cell.mu.Lock()
	defer cell.mu.Unlock()
	if cell.resolved {
		return cell.svc, nil
	}

	scope := newSingletonScope(r, building, reg.ID)
	svc, release, err := acquire(ctx, scope, reg)
	if err != nil {
		if cerr := scope.CloseContext(ctx); cerr != nil {
			r.logger.Warn("singleton dependency teardown failed",
				zap.Stringer("service", reg.ID),
				zap.Error(cerr),
			)
		}
		return nil, err
	}
	deps := scope.detach()
	cell.svc, cell.resolved = svc, true

	r.mu.Lock()
	r.releases = append(r.releases, deps...)
	if release != nil {
		r.releases = append(r.releases, releaseEntry{id: reg.ID, release: release})
	}
	r.mu.Unlock()
	return svc, nil
}

// ── Shutdown ──────────────────────────────────────────────────────────────────

// Close is CloseContext with a background context.
func (r *Registry) Close() error {
	return r.CloseContext(context.Background())
}

// CloseContext releases acquired singletons (last acquired first), then runs
// OnRegistryClose hooks (last registered first), and empties the registry.
// Every action runs; failures are returned together as a *TeardownError.
// Closing an empty registry is a no-op.
func (r *Registry) CloseContext(ctx context.Context) error {
	r.mu.Lock()
	releases := r.releases
	hooks := make([]releaseEntry, 0, len(r.order))
	for _, id := range r.order {
		if reg := r.registrations[id]; reg.OnRegistryClose != nil {
			hooks = append(hooks, releaseEntry{id: id, release: reg.OnRegistryClose})
		}
	}
	r.releases = nil
	r.registrations = make(map[ServiceID]*Registration)
	r.order = nil
	r.singletons = make(map[ServiceID]*singletonCell)
	r.mu.Unlock()

	var errs error
	for i := len(releases) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, r.runRelease(ctx, releases[i], ""))
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, r.runRelease(ctx, hooks[i], ""))
	}
	if errs == nil {
		return nil
	}
	return &TeardownError{Causes: multierr.Errors(errs)}
}

// runRelease invokes one release action, recovering panics. The returned
// error, if any, is a *ReleaseError.
func (r *Registry) runRelease(ctx context.Context, e releaseEntry, containerID string) (err error) {
	finish := r.observer.OnRelease(ctx, e.id)
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError(rec)
		}
		finish(err)
		if err != nil {
			fields := []zap.Field{zap.Stringer("service", e.id), zap.Error(err)}
			if containerID != "" {
				fields = append(fields, zap.String("container", containerID))
			}
			r.logger.Warn("service release failed", fields...)
			err = &ReleaseError{ID: e.id, Err: err}
		}
	}()
	return e.release(ctx)
}
