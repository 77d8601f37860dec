package container

import (
	"context"

	"go.uber.org/multierr"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registrations of one feature.
//
// Register is called as soon as the provider is added and must only register.
// Boot is called after every provider has registered; it receives a bootstrap
// Container, so it may resolve (and warm up) any service. The bootstrap
// Container is closed when booting finishes, singletons survive it.
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) Register(reg *container.Registry) {
//	    container.Provide(reg, func(c *container.Container) (*Mailer, error) {
//	        cfg, err := container.Resolve[*config.Config](c)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return NewMailer(cfg), nil
//	    })
//	}
type ServiceProvider interface {
	Register(reg *Registry)
	Boot(ctx context.Context, c *Container) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op Boot.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(reg *container.Registry) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(context.Context, *Container) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders against a Registry.
type ProviderRegistry struct {
	registry   *Registry
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a provider registry bound to reg.
func NewProviderRegistry(reg *Registry) *ProviderRegistry {
	return &ProviderRegistry{
		registry:   reg,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method. Adding the same
// provider twice is a no-op. A provider added after Boot is booted at once.
func (r *ProviderRegistry) Register(ctx context.Context, provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	provider.Register(r.registry)
	r.providers = append(r.providers, provider)

	if r.booted {
		return r.boot(ctx, []ServiceProvider{provider})
	}
	return nil
}

// Boot calls Boot on every registered provider, in registration order, and
// returns all of their errors combined. Only the first call has an effect.
func (r *ProviderRegistry) Boot(ctx context.Context) error {
	if r.booted {
		return nil
	}
	r.booted = true
	return r.boot(ctx, r.providers)
}

func (r *ProviderRegistry) boot(ctx context.Context, providers []ServiceProvider) (err error) {
	c := New(r.registry)
	defer func() {
		err = multierr.Append(err, c.CloseContext(ctx))
	}()
	for _, p := range providers {
		err = multierr.Append(err, p.Boot(ctx, c))
	}
	return err
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }

// Registry returns the underlying service registry.
func (r *ProviderRegistry) Registry() *Registry { return r.registry }
