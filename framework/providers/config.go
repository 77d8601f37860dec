package providers

import (
	"context"
	"errors"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-svcs/framework/config"
	"github.com/km-arc/go-svcs/framework/container"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider registers the application configuration.
//
// Registered identities:
//   - TypeOf[*config.Config]()
//
// Boot fails when the configuration does not validate.
type ConfigServiceProvider struct {
	// Config is used as-is when set; otherwise it is loaded from EnvFiles.
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(reg *container.Registry) {
	if p.Config == nil {
		p.Config = config.Load(p.EnvFiles...)
	}
	container.ProvideValue(reg, p.Config)
}

func (p *ConfigServiceProvider) Boot(ctx context.Context, c *container.Container) error {
	cfg, err := container.ResolveContext[*config.Config](ctx, c)
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider registers the process logger.
//
// Registered identities:
//   - TypeOf[*zap.Logger]()
//
// The logger is flushed when the registry closes.
type LogServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LogServiceProvider) Register(reg *container.Registry) {
	logger := p.Logger
	if logger == nil {
		logger = reg.Logger()
	}
	container.ProvideValue(reg, logger, container.WithOnRegistryClose(func(context.Context) error {
		return syncLogger(logger)
	}))
}

// syncLogger flushes l, ignoring the errors stdout and stderr return when
// they are terminals or pipes.
func syncLogger(l *zap.Logger) error {
	err := l.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF) {
		return nil
	}
	return err
}
