package providers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
	"go.uber.org/zap"

	"github.com/km-arc/go-svcs/framework/config"
	"github.com/km-arc/go-svcs/framework/container"
)

// drivers maps DB_DRIVER values to database/sql driver names.
var drivers = map[string]string{
	"sqlite": "sqlite",
	"mysql":  "mysql",
}

// DatabaseServiceProvider registers the database pool and per-scope
// connections.
//
// Registered identities:
//   - TypeOf[*sql.DB]()   singleton pool, closed when the registry closes;
//     probed with PingContext.
//   - TypeOf[*sql.Conn]() context-bound, one connection per Container,
//     returned to the pool when the Container closes.
//
// The pool is opened from the *config.Config registered by
// ConfigServiceProvider.
type DatabaseServiceProvider struct {
	// Warm opens and pings the pool during Boot instead of on first use.
	Warm bool

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func (p *DatabaseServiceProvider) Register(reg *container.Registry) {
	logger := reg.Logger()

	reg.Singleton(container.TypeOf[*sql.DB](), container.CleanupFunc(
		func(c *container.Container) (any, func() error, error) {
			cfg, err := container.Resolve[*config.Config](c)
			if err != nil {
				return nil, nil, err
			}
			db, err := p.open(cfg.DB)
			if err != nil {
				return nil, nil, err
			}
			logger.Info("database pool opened", zap.String("driver", cfg.DB.Driver))
			return db, func() error {
				logger.Info("database pool closed", zap.String("driver", cfg.DB.Driver))
				return db.Close()
			}, nil
		}),
		container.WithPing(func(ctx context.Context, svc any) error {
			return svc.(*sql.DB).PingContext(ctx)
		}),
	)

	container.ProvideContextCleanup(reg, func(ctx context.Context, c *container.Container) (*sql.Conn, container.Release, error) {
		db, err := container.ResolveContext[*sql.DB](ctx, c)
		if err != nil {
			return nil, nil, err
		}
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("acquire connection: %w", err)
		}
		return conn, func(context.Context) error { return conn.Close() }, nil
	})
}

func (p *DatabaseServiceProvider) Boot(ctx context.Context, c *container.Container) error {
	if !p.Warm {
		return nil
	}
	db, err := container.ResolveContext[*sql.DB](ctx, c)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (p *DatabaseServiceProvider) open(cfg config.DBConfig) (*sql.DB, error) {
	driver, ok := drivers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.ConnMaxLifetime)
	}
	return db, nil
}
