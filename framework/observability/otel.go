package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/km-arc/go-svcs/framework/container"
)

const instrumentation = "github.com/km-arc/go-svcs"

// OTel emits a span per resolution, release and probe, and records counters
// and a latency histogram through an OpenTelemetry meter.
type OTel struct {
	tracer trace.Tracer

	resolutions metric.Int64Counter
	latency     metric.Float64Histogram
	errors      metric.Int64Counter
	pings       metric.Int64Counter
}

var _ container.Observer = (*OTel)(nil)

// NewOTel builds an observer from the given providers. Nil providers fall
// back to the global ones installed with otel.SetTracerProvider and
// otel.SetMeterProvider.
func NewOTel(tp trace.TracerProvider, mp metric.MeterProvider) (*OTel, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentation)

	resolutions, err := meter.Int64Counter("svcs.resolutions",
		metric.WithDescription("Number of service resolutions"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("svcs.resolve.latency_ms",
		metric.WithDescription("Service acquisition latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("svcs.errors",
		metric.WithDescription("Number of failed resolutions, releases and probes"),
	)
	if err != nil {
		return nil, err
	}

	pings, err := meter.Int64Counter("svcs.pings",
		metric.WithDescription("Number of health probes run"),
	)
	if err != nil {
		return nil, err
	}

	return &OTel{
		tracer:      tp.Tracer(instrumentation),
		resolutions: resolutions,
		latency:     latency,
		errors:      errs,
		pings:       pings,
	}, nil
}

// OnResolve starts a svcs.resolve span and returns a context carrying it.
// Dependencies the factory resolves through that context become child spans;
// ones resolved with a plain Get start from the background and stay roots.
func (o *OTel) OnResolve(ctx context.Context, id container.ServiceID) (context.Context, func(error)) {
	start := time.Now()
	attrs := metric.WithAttributes(serviceAttr(id))
	ctx, span := o.start(ctx, "svcs.resolve", id)
	return ctx, func(err error) {
		o.resolutions.Add(ctx, 1, attrs)
		o.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
		o.end(ctx, span, id, "resolve", err)
	}
}

func (o *OTel) OnRelease(ctx context.Context, id container.ServiceID) func(error) {
	_, span := o.start(ctx, "svcs.release", id)
	return func(err error) {
		o.end(ctx, span, id, "release", err)
	}
}

func (o *OTel) OnPing(ctx context.Context, id container.ServiceID) func(error) {
	_, span := o.start(ctx, "svcs.ping", id)
	return func(err error) {
		o.pings.Add(ctx, 1, metric.WithAttributes(serviceAttr(id), attribute.Bool("success", err == nil)))
		o.end(ctx, span, id, "ping", err)
	}
}

func (o *OTel) start(ctx context.Context, name string, id container.ServiceID) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name,
		trace.WithAttributes(serviceAttr(id)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (o *OTel) end(ctx context.Context, span trace.Span, id container.ServiceID, op string, err error) {
	if err != nil {
		o.errors.Add(ctx, 1, metric.WithAttributes(
			serviceAttr(id),
			attribute.String("op", op),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func serviceAttr(id container.ServiceID) attribute.KeyValue {
	return attribute.String("service.id", id.String())
}
