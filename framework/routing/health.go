package routing

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/km-arc/go-svcs/framework/container"
	gohttp "github.com/km-arc/go-svcs/framework/http"
)

// HealthHandler runs every registered probe and writes the report as JSON:
// 200 {"status":"ok",...} or 503 {"status":"degraded",...}. Probes share a
// deadline of timeout (no deadline when timeout <= 0).
//
// When the Services middleware is installed the probes run through the
// request's Container, so local overrides apply. Otherwise a private
// Container is used and closed afterwards.
func HealthHandler(reg *container.Registry, timeout time.Duration) http.HandlerFunc {
	logger := zap.NewNop()
	if reg != nil {
		logger = reg.Logger()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		res := gohttp.NewResponse(w)
		report, err := container.CheckHealth(ctx, reg, func() *container.Container {
			c, _ := container.FromContext(r.Context())
			return c
		})
		if err != nil {
			logger.Error("health check failed", zap.Error(err))
			res.ServerError()
			return
		}
		if failed := report.Failed(); len(failed) > 0 {
			logger.Warn("health check degraded", zap.Stringers("services", failed))
		}
		res.Health(report)
	}
}

// MetricsHandler exposes g in the Prometheus text format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
