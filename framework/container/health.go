package container

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// ServicePing checks one registered service through a Container.
type ServicePing struct {
	ID ServiceID

	ping      Ping
	container *Container
}

// Ping resolves the service and runs its probe. Panics in the probe are
// returned as errors.
func (p ServicePing) Ping(ctx context.Context) (err error) {
	finish := p.container.registry.observer.OnPing(ctx, p.ID)
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError(rec)
		}
		finish(err)
	}()

	svc, err := p.container.GetContext(ctx, p.ID)
	if err != nil {
		return err
	}
	return p.ping(ctx, svc)
}

// Pings returns a ServicePing for every registry probe, in registration
// order. A local override that carries its own probe replaces the registry's.
func (c *Container) Pings() []ServicePing {
	var out []ServicePing
	for id, ping := range c.registry.HealthProbes() {
		c.mu.Lock()
		if o, ok := c.overrides[id]; ok && o.Ping != nil {
			ping = o.Ping
		}
		c.mu.Unlock()
		out = append(out, ServicePing{ID: id, ping: ping, container: c})
	}
	return out
}

// Status is the outcome of one probe.
type Status struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Report maps each probed service to its status.
type Report map[ServiceID]Status

// Healthy reports whether every probe succeeded.
func (r Report) Healthy() bool {
	for _, s := range r {
		if !s.OK {
			return false
		}
	}
	return true
}

// Failed returns the identities whose probe failed, sorted by name.
func (r Report) Failed() []ServiceID {
	var out []ServiceID
	for id, s := range r {
		if !s.OK {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Strings returns the report keyed by identity name, for rendering.
// Identities whose short names collide are keyed by their qualified name.
func (r Report) Strings() map[string]Status {
	seen := make(map[string]int, len(r))
	for id := range r {
		seen[id.String()]++
	}
	out := make(map[string]Status, len(r))
	for id, s := range r {
		key := id.String()
		if seen[key] > 1 {
			key = id.QualifiedString()
		}
		out[key] = s
	}
	return out
}

// CheckHealth runs every registered probe and records its outcome.
//
// Probes resolve their service through the Container returned by
// newContainer. When newContainer is nil a private Container is used and
// closed afterwards; its teardown failures are logged, not returned.
// A failing probe never makes CheckHealth fail: the only error is a
// structural one (a nil registry).
func CheckHealth(ctx context.Context, r *Registry, newContainer func() *Container) (Report, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}

	var c *Container
	if newContainer != nil {
		c = newContainer()
	}
	if c == nil {
		c = New(r)
		defer func() {
			if err := c.CloseContext(ctx); err != nil {
				r.logger.Warn("health check container teardown failed", zap.Error(err))
			}
		}()
	}

	report := make(Report)
	for _, p := range c.Pings() {
		if err := p.Ping(ctx); err != nil {
			report[p.ID] = Status{OK: false, Error: err.Error()}
			continue
		}
		report[p.ID] = Status{OK: true}
	}
	return report, nil
}
