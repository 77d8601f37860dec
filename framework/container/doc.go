// Package container provides a service locator for Go services: a
// process-wide Registry of factories and a short-lived Container that
// resolves, caches and tears down services for one unit of work.
//
// # Overview
//
// The Registry is built once at startup. For every request (or job, or CLI
// invocation) a Container is created from it; handlers ask the Container for
// the services they need, and the Container is closed when the unit of work
// ends, releasing everything it acquired in reverse order.
//
// There is no reflection-driven wiring. Factories receive the Container and
// ask for their own dependencies explicitly.
//
// # Lifecycle
//
//  1. Create:   reg := container.NewRegistry(container.WithLogger(log))
//  2. Register: providers / reg.Register(...) at startup
//  3. Per unit: c := container.New(reg); defer c.CloseContext(ctx)
//  4. Shutdown: reg.CloseContext(ctx)
//
// # Identities
//
//	container.TypeOf[*sql.DB]()             // by Go type
//	container.TypeOf[UserRepository]()      // by interface
//	container.Named[*sql.DB]("replica")     // several of one type
//
// # Factories
//
//	// Direct — built once per Container, nothing to release
//	container.Provide(reg, func(c *container.Container) (*Mailer, error) {
//	    return NewMailer(), nil
//	})
//
//	// Acquire/release — the cleanup runs when the Container closes
//	container.ProvideCleanup(reg, func(c *container.Container) (*Session, func() error, error) {
//	    s := OpenSession()
//	    return s, s.Close, nil
//	})
//
//	// Context-bound — only resolvable through GetContext / ResolveContext
//	container.ProvideContextCleanup(reg, func(ctx context.Context, c *container.Container) (*sql.Conn, container.Release, error) {
//	    db, err := container.ResolveContext[*sql.DB](ctx, c)
//	    if err != nil {
//	        return nil, nil, err
//	    }
//	    conn, err := db.Conn(ctx)
//	    if err != nil {
//	        return nil, nil, err
//	    }
//	    return conn, func(context.Context) error { return conn.Close() }, nil
//	})
//
//	// Process-wide — acquired once, released by reg.Close
//	reg.Singleton(container.TypeOf[*sql.DB](), container.CleanupFunc(openDB))
//
//	// Literal value with a close hook
//	reg.RegisterValue(container.TypeOf[*Config](), cfg,
//	    container.WithOnRegistryClose(func(context.Context) error { return nil }))
//
// # Resolving
//
//	m, err := container.Resolve[*Mailer](c)
//	conn, err := container.ResolveContext[*sql.Conn](ctx, c)
//	raw, err := c.Get(container.TypeOf[*Mailer]())
//
// # Overrides
//
// Local bindings shadow the Registry for one Container only, which is how
// tests substitute fakes:
//
//	c.RegisterLocalValue(container.TypeOf[*Mailer](), fakeMailer)
//
// # Health
//
//	container.ProvideContext(reg, openDB, container.WithPing(func(ctx context.Context, svc any) error {
//	    return svc.(*sql.DB).PingContext(ctx)
//	}))
//
//	report, err := container.CheckHealth(ctx, reg, nil)
//	report.Healthy()
//
// # Errors
//
// Resolution errors (*ServiceNotFoundError, *FactoryError, ErrContextRequired,
// ErrContainerClosed) are returned at once. Release failures are collected
// while the whole stack drains and returned as one *TeardownError. Probe
// failures are recorded in the health Report and never returned.
package container
