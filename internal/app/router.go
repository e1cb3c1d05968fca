package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetline-erp/fleetline-erp/internal/auth"
	"github.com/fleetline-erp/fleetline-erp/internal/billing"
	"github.com/fleetline-erp/fleetline-erp/internal/dispatch"
	"github.com/fleetline-erp/fleetline-erp/internal/fleet"
	"github.com/fleetline-erp/fleetline-erp/internal/observability"
	"github.com/fleetline-erp/fleetline-erp/jobs"
)

// RouterParams aggregates everything the HTTP router mounts.
type RouterParams struct {
	Middleware MiddlewareConfig
	Metrics    *observability.Metrics

	Auth     *auth.Handler
	Billing  *billing.Handler
	Dispatch *dispatch.Handler
	Fleet    *fleet.Handler
	Jobs     *jobs.Handler
}

// NewRouter builds the chi router with the full middleware stack and every
// mounted module.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(p.Middleware) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", p.Auth.MountRoutes)
		p.Billing.MountRoutes(r)
		p.Dispatch.MountRoutes(r)
		p.Fleet.MountRoutes(r)
		if p.Jobs != nil {
			r.Route("/jobs", p.Jobs.MountRoutes)
		}
	})

	return r
}
