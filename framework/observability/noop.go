package observability

import (
	"context"

	"github.com/km-arc/go-svcs/framework/container"
)

// Noop discards every event. Use it when telemetry is disabled.
type Noop struct{}

var _ container.Observer = Noop{}

func discard(error) {}

func (Noop) OnResolve(ctx context.Context, _ container.ServiceID) (context.Context, func(error)) {
	return ctx, discard
}

func (Noop) OnRelease(context.Context, container.ServiceID) func(error) { return discard }
func (Noop) OnPing(context.Context, container.ServiceID) func(error)    { return discard }
