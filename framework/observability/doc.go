// Package observability turns container events into telemetry.
//
// Each exported type implements container.Observer and can be combined with
// container.Observers:
//
//	prom, _ := observability.NewPrometheus(prometheus.DefaultRegisterer)
//	tel, _ := observability.NewOTel(nil, nil)
//	reg := container.NewRegistry(container.WithObserver(container.Observers(prom, tel)))
package observability
