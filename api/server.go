/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for employer dashboards

ROUTE GROUPS:
  /api/companies/*      Company ledger, fiscal limits, distributions
  /api/employees        Employee registration
  /api/transactions/*   Merchant spend
  /api/alerts/*         Fraud alerts
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness probe
  /metrics              Prometheus exposition

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Company routes
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", h.ListCompanies)
			r.Post("/", h.CreateCompany)
			r.Get("/{id}", h.GetCompany)
			r.Get("/{id}/employees", h.ListEmployees)
			r.Get("/{id}/fiscal-limit", h.GetFiscalLimit)
			r.Post("/{id}/recharge/validate", h.ValidateRecharge)
			r.Post("/{id}/recharge", h.Recharge)
			r.Post("/{id}/distributions/plan", h.PlanDistribution)
			r.Post("/{id}/distributions", h.ApplyDistribution)
			r.Get("/{id}/transactions/scored", h.ScoredTransactions)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Post("/", h.CreateEmployee)
		})

		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.Spend)
			r.Delete("/{id}", h.CancelTransaction)
		})

		// Alert routes
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.ListAlerts)
			r.Post("/{id}/status", h.UpdateAlertStatus)
		})

		// Scenario routes (demo data)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	// Operational endpoints
	r.Get("/healthz", h.Healthz)
	if h.MetricsEnabled {
		r.Handle("/metrics", h.Metrics.Handler())
	}

	return r
}
