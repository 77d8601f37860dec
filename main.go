package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/km-arc/go-svcs/framework/app"
	"github.com/km-arc/go-svcs/framework/config"
	"github.com/km-arc/go-svcs/framework/console"
	"github.com/km-arc/go-svcs/framework/container"
	gohttp "github.com/km-arc/go-svcs/framework/http"
	"github.com/km-arc/go-svcs/framework/routing"
)

const version = "0.1.0"

func main() {
	cmd := console.NewRootCommand("go-svcs", version, routes)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func routes(a *app.Application) error {
	r := a.Router

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{"message": "Welcome to go-svcs!"})
	})

	r.Prefix("/api/v1", func(api *routing.Router) {
		// GET /api/v1/status
		api.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			res := gohttp.NewResponse(w)

			conn, err := gohttp.Service[*sql.Conn](req)
			if err != nil {
				res.ServiceUnavailable(err.Error())
				return
			}
			var now string
			if err := conn.QueryRowContext(req.Context(), "SELECT CURRENT_TIMESTAMP").Scan(&now); err != nil {
				res.ServerError(err.Error())
				return
			}

			cfg := container.MustResolve[*config.Config](gohttp.ServicesFrom(req))
			res.Success(map[string]any{
				"app":       cfg.App.Name,
				"env":       cfg.App.Env,
				"version":   version,
				"container": gohttp.ServicesFrom(req).ID(),
				"db_time":   now,
			})
		})

		// GET /api/v1/services?prefix=*sql.
		api.Get("/services", func(w http.ResponseWriter, r *http.Request) {
			prefix := gohttp.NewRequest(r).Query("prefix")
			names := []string{}
			for _, id := range a.Registry.IDs() {
				if strings.HasPrefix(id.String(), prefix) {
					names = append(names, id.String())
				}
			}
			gohttp.NewResponse(w).Success(names)
		})

		// GET /api/v1/services/{name}
		api.Get("/services/{name}", func(w http.ResponseWriter, r *http.Request) {
			res := gohttp.NewResponse(w)
			id, ok := lookupService(a.Registry, gohttp.NewRequest(r).RouteParam("name"))
			if !ok {
				res.NotFound("Unknown service.")
				return
			}
			reg, _ := a.Registry.Lookup(id)
			res.Success(map[string]any{
				"name":      id.String(),
				"singleton": reg.Singleton,
				"probed":    reg.Ping != nil,
			})
		})

		// POST /api/v1/health {"services": ["*sql.DB"]}
		api.Post("/health", func(w http.ResponseWriter, r *http.Request) {
			req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

			var body struct {
				Services []string `json:"services"`
			}
			if err := req.Bind(&body); err != nil {
				res.Error(http.StatusBadRequest, err.Error())
				return
			}

			report, err := container.CheckHealth(r.Context(), a.Registry, req.Services)
			if err != nil {
				res.ServerError(err.Error())
				return
			}
			if len(body.Services) > 0 {
				wanted := make(map[string]bool, len(body.Services))
				for _, name := range body.Services {
					wanted[name] = true
				}
				for id := range report {
					if !wanted[id.String()] {
						delete(report, id)
					}
				}
			}
			res.Health(report)
		})
	})

	return nil
}

func lookupService(reg *container.Registry, name string) (container.ServiceID, bool) {
	for _, id := range reg.IDs() {
		if id.String() == name {
			return id, true
		}
	}
	return container.ServiceID{}, false
}
