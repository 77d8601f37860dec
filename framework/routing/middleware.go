package routing

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-svcs/framework/container"
)

// Services gives every request its own Container. The Container is stored in
// the request context (see container.FromContext) and closed once the
// handler returns, even if it panics. Teardown failures are logged, since the
// response has already been written by then.
//
//	router.Middleware(routing.Services(reg, logger))
//	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
//	    db, err := container.ResolveFrom[*sql.DB](r.Context())
//	    ...
//	})
func Services(reg *container.Registry, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = reg.Logger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := container.New(reg)
			ctx := container.WithContainer(r.Context(), c)
			defer func() {
				// The request context may already be cancelled; releases still run.
				if err := c.CloseContext(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("request container teardown failed",
						zap.String("container", c.ID()),
						zap.String("path", r.URL.Path),
						zap.String("request_id", middleware.GetReqID(ctx)),
						zap.Error(err),
					)
				}
			}()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
