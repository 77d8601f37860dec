package container

import "context"

// Observer receives resolution, release and probe events. Each On* call
// returns a func that is invoked with the outcome once the step finishes.
//
// OnResolve also returns the context the factory runs with, so a tracing
// observer can parent the resolutions of nested dependencies under it.
type Observer interface {
	OnResolve(ctx context.Context, id ServiceID) (context.Context, func(err error))
	OnRelease(ctx context.Context, id ServiceID) func(err error)
	OnPing(ctx context.Context, id ServiceID) func(err error)
}

type noopObserver struct{}

func done(error) {}

func (noopObserver) OnResolve(ctx context.Context, _ ServiceID) (context.Context, func(error)) {
	return ctx, done
}

func (noopObserver) OnRelease(context.Context, ServiceID) func(error) { return done }
func (noopObserver) OnPing(context.Context, ServiceID) func(error)    { return done }

type multiObserver []Observer

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return noopObserver{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multiObserver) fan(each func(Observer) func(error)) func(error) {
	fns := make([]func(error), len(m))
	for i, o := range m {
		fns[i] = each(o)
	}
	return func(err error) {
		for _, fn := range fns {
			fn(err)
		}
	}
}

func (m multiObserver) OnResolve(ctx context.Context, id ServiceID) (context.Context, func(error)) {
	finish := m.fan(func(o Observer) func(error) {
		var fn func(error)
		ctx, fn = o.OnResolve(ctx, id)
		return fn
	})
	return ctx, finish
}

func (m multiObserver) OnRelease(ctx context.Context, id ServiceID) func(error) {
	return m.fan(func(o Observer) func(error) { return o.OnRelease(ctx, id) })
}

func (m multiObserver) OnPing(ctx context.Context, id ServiceID) func(error) {
	return m.fan(func(o Observer) func(error) { return o.OnPing(ctx, id) })
}
