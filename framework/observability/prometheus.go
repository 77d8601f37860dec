package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/go-svcs/framework/container"
)

const namespace = "svcs"

// Prometheus records resolution, release and probe outcomes as Prometheus
// metrics labelled by service identity.
type Prometheus struct {
	resolutions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	releases    *prometheus.CounterVec
	pings       *prometheus.CounterVec
	up          *prometheus.GaugeVec
}

var _ container.Observer = (*Prometheus)(nil)

// NewPrometheus builds the collectors and registers them with r. A nil r
// leaves them unregistered, which is handy for tests that only inspect values.
func NewPrometheus(r prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Service resolutions by outcome.",
		}, []string{"service", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time spent acquiring a service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "releases_total",
			Help:      "Release actions run by outcome.",
		}, []string{"service", "outcome"}),
		pings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pings_total",
			Help:      "Health probes run by outcome.",
		}, []string{"service", "outcome"}),
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_up",
			Help:      "1 if the last health probe succeeded, 0 otherwise.",
		}, []string{"service"}),
	}
	if r == nil {
		return p, nil
	}
	for _, c := range p.Collectors() {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Collectors returns every collector owned by p.
func (p *Prometheus) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.resolutions, p.latency, p.releases, p.pings, p.up}
}

func (p *Prometheus) OnResolve(ctx context.Context, id container.ServiceID) (context.Context, func(error)) {
	start := time.Now()
	service := id.String()
	return ctx, func(err error) {
		p.latency.WithLabelValues(service).Observe(time.Since(start).Seconds())
		p.resolutions.WithLabelValues(service, outcome(err)).Inc()
	}
}

func (p *Prometheus) OnRelease(_ context.Context, id container.ServiceID) func(error) {
	service := id.String()
	return func(err error) {
		p.releases.WithLabelValues(service, outcome(err)).Inc()
	}
}

func (p *Prometheus) OnPing(_ context.Context, id container.ServiceID) func(error) {
	service := id.String()
	return func(err error) {
		p.pings.WithLabelValues(service, outcome(err)).Inc()
		if err != nil {
			p.up.WithLabelValues(service).Set(0)
			return
		}
		p.up.WithLabelValues(service).Set(1)
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
