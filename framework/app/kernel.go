package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-svcs/framework/config"
	"github.com/km-arc/go-svcs/framework/container"
	"github.com/km-arc/go-svcs/framework/logger"
	"github.com/km-arc/go-svcs/framework/observability"
	"github.com/km-arc/go-svcs/framework/providers"
	"github.com/km-arc/go-svcs/framework/routing"
)

// Application owns the process-wide Registry, its providers and the HTTP
// router. Every request is served through its own Container.
type Application struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *container.Registry
	Providers *container.ProviderRegistry
	Router    *routing.Router
	Metrics   *prometheus.Registry
}

// Option customises New.
type Option func(*options)

type options struct {
	config   *config.Config
	logger   *zap.Logger
	observer container.Observer
}

// WithConfig uses cfg instead of loading the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger uses l instead of building one from the configuration.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver adds an observer next to the built-in Prometheus one.
func WithObserver(obs container.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// New wires the application: configuration, logging, metrics, the core
// providers and the router with the Services middleware, the health endpoint
// and /metrics. Call Boot (or Run) before serving.
func New(envFiles []string, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.config
	if cfg == nil {
		cfg = config.Load(envFiles...)
	}
	log := o.logger
	if log == nil {
		var err error
		if log, err = logger.New(cfg.Log.Level, cfg.Log.Encoding); err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}
	log = log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	metrics := prometheus.NewRegistry()
	prom, err := observability.NewPrometheus(metrics)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	reg := container.NewRegistry(
		container.WithLogger(log),
		container.WithObserver(container.Observers(prom, o.observer)),
	)

	a := &Application{
		Config:    cfg,
		Logger:    log,
		Registry:  reg,
		Providers: container.NewProviderRegistry(reg),
		Router:    routing.New(log),
		Metrics:   metrics,
	}

	ctx := context.Background()
	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LogServiceProvider{Logger: log},
		&providers.DatabaseServiceProvider{},
	}
	for _, p := range core {
		if err := a.Providers.Register(ctx, p); err != nil {
			return nil, err
		}
	}

	a.Router.Middleware(routing.Services(reg, log))
	a.Router.Get(cfg.Health.Path, routing.HealthHandler(reg, cfg.Health.Timeout))
	a.Router.Handle("/metrics", routing.MetricsHandler(metrics))

	return a, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(ctx context.Context, provider container.ServiceProvider) error {
	return a.Providers.Register(ctx, provider)
}

// Boot runs the Boot phase on all providers.
func (a *Application) Boot(ctx context.Context) error {
	return a.Providers.Boot(ctx)
}

// Handler returns the HTTP handler serving the application routes.
func (a *Application) Handler() http.Handler { return a.Router }

// CheckHealth runs every registered probe through a private Container.
func (a *Application) CheckHealth(ctx context.Context) (container.Report, error) {
	if a.Config.Health.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.Health.Timeout)
		defer cancel()
	}
	return container.CheckHealth(ctx, a.Registry, nil)
}

// Run boots the application (if needed) and serves HTTP on APP_PORT until
// ctx is cancelled. Shutdown drains in-flight requests, then closes the
// Registry so singletons and registry close hooks are released.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+a.Config.App.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) (err error) {
	if !a.Providers.Booted() {
		if err := a.Boot(ctx); err != nil {
			_ = ln.Close()
			return multierr.Append(fmt.Errorf("boot: %w", err), a.Close(context.Background()))
		}
	}

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		a.Logger.Info("shutting down", zap.Duration("timeout", a.Config.App.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.App.ShutdownTimeout)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
	}

	return multierr.Append(err, a.Close(context.WithoutCancel(ctx)))
}

// Close releases registry singletons and runs registry close hooks.
func (a *Application) Close(ctx context.Context) error {
	if err := a.Registry.CloseContext(ctx); err != nil {
		a.Logger.Error("registry close failed", zap.Error(err))
		return err
	}
	a.Logger.Info("registry closed")
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }
