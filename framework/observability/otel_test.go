package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/km-arc/go-svcs/framework/container"
)

func setupOTel(t *testing.T) (*OTel, *tracetest.InMemoryExporter, *sdkmetric.ManualReader) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	o, err := NewOTel(tp, mp)
	require.NoError(t, err)
	return o, exporter, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(m *metricdata.Metrics) int64 {
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return -1
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestOTel_SpansPerEvent(t *testing.T) {
	o, exporter, _ := setupOTel(t)
	reg := newTestRegistry(o)

	c := container.New(reg)
	_, _ = c.Get(container.Named[*conn]("db"))
	_, _ = c.Get(container.Named[*conn]("cache"))
	_ = c.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	assert.Equal(t, "svcs.resolve", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	assert.Equal(t, "svcs.resolve", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Contains(t, spans[1].Status.Description, "dial tcp: refused")

	assert.Equal(t, "svcs.release", spans[2].Name)
	assert.Equal(t, codes.Error, spans[2].Status.Code)

	var service string
	for _, attr := range spans[0].Attributes {
		if attr.Key == "service.id" {
			service = attr.Value.AsString()
		}
	}
	assert.Equal(t, container.Named[*conn]("db").String(), service)
}

func TestOTel_NestedResolutionIsChildSpan(t *testing.T) {
	o, exporter, _ := setupOTel(t)
	reg := container.NewRegistry(container.WithObserver(o))
	reg.RegisterValue(container.Named[*conn]("db"), &conn{name: "db"})
	reg.Register(container.Named[*conn]("repo"), container.ContextFunc(func(ctx context.Context, c *container.Container) (any, error) {
		return container.ResolveNamed[*conn](ctx, c, "db")
	}))

	_, err := container.New(reg).GetContext(context.Background(), container.Named[*conn]("repo"))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	// the inner span ends first
	child, parent := spans[0], spans[1]
	assert.Equal(t, parent.SpanContext.TraceID(), child.SpanContext.TraceID())
	assert.Equal(t, parent.SpanContext.SpanID(), child.Parent.SpanID())
	assert.False(t, parent.Parent.IsValid())
}

func TestOTel_Metrics(t *testing.T) {
	o, _, reader := setupOTel(t)
	reg := newTestRegistry(o)

	c := container.New(reg)
	_, _ = c.Get(container.Named[*conn]("db"))
	_, _ = c.Get(container.Named[*conn]("cache"))
	_ = c.Close()

	_, err := container.CheckHealth(context.Background(), reg, nil)
	require.NoError(t, err)

	rm := collectMetrics(t, reader)

	resolutions := findMetric(rm, "svcs.resolutions")
	require.NotNil(t, resolutions)
	// two direct resolutions plus two from the health check
	assert.Equal(t, int64(4), sumValue(resolutions))

	pings := findMetric(rm, "svcs.pings")
	require.NotNil(t, pings)
	assert.Equal(t, int64(2), sumValue(pings))

	// cache resolution twice, its probe, db release twice
	errs := findMetric(rm, "svcs.errors")
	require.NotNil(t, errs)
	assert.Equal(t, int64(5), sumValue(errs))

	latency := findMetric(rm, "svcs.resolve.latency_ms")
	require.NotNil(t, latency)
	_, ok := latency.Data.(metricdata.Histogram[float64])
	assert.True(t, ok, "expected histogram")
}

func TestObservers_FanOut(t *testing.T) {
	o, exporter, _ := setupOTel(t)
	p, err := NewPrometheus(nil)
	require.NoError(t, err)

	reg := newTestRegistry(container.Observers(o, Noop{}, nil, p))
	_, err = container.New(reg).Get(container.Named[*conn]("db"))
	require.NoError(t, err)

	assert.Len(t, exporter.GetSpans(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.resolutions.WithLabelValues(container.Named[*conn]("db").String(), "ok")))
}

func TestNoop(t *testing.T) {
	var n Noop
	id := container.TypeOf[*conn]()
	assert.NotPanics(t, func() {
		ctx, finish := n.OnResolve(context.Background(), id)
		assert.Equal(t, context.Background(), ctx)
		finish(nil)
		n.OnRelease(context.Background(), id)(nil)
		n.OnPing(context.Background(), id)(nil)
	})
}
