// Package api exposes the savings vault over HTTP. It carries routing,
// request decoding and error mapping only; all engine behavior lives behind
// the application facade.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterDeps carries everything NewRouter needs to wire the API
type RouterDeps struct {
	Deposits DepositService
	Plans    PlanService
	Admin    AdminService

	Health      HealthChecker
	AdminToken  string
	RateLimiter *RateLimiter
}

// NewRouter builds the full route tree.
//
// Recovery and request logging wrap everything. Mutating endpoints add the
// per-client rate limiter, and the /api/admin tree additionally requires
// the bearer token.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Logger first so recovered panics still produce a request line
	r.Use(RequestLogger)
	r.Use(Recovery)

	depositHandler := NewDepositHandler(deps.Deposits)
	planHandler := NewPlanHandler(deps.Plans)
	adminHandler := NewAdminHandler(deps.Admin)

	throttled := deps.RateLimiter.Middleware()

	r.Get("/health", healthHandler(deps.Health))

	r.Route("/api/deposits", func(r chi.Router) {
		r.With(throttled).Post("/", depositHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", depositHandler.Get)
			r.Get("/interest", depositHandler.Interest)
			r.With(throttled).Post("/withdraw", depositHandler.Withdraw)
			r.With(throttled).Post("/emergency-withdraw", depositHandler.EmergencyWithdraw)
		})
	})

	r.Route("/api/users/{owner}", func(r chi.Router) {
		r.Get("/deposits", depositHandler.ListByOwner)
		r.Get("/summary", depositHandler.Summary)
	})

	r.Route("/api/plans", func(r chi.Router) {
		r.Get("/", planHandler.List)
		r.Get("/{id}", planHandler.Get)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(AdminAuth(deps.AdminToken))
		r.Use(throttled)

		r.Put("/plans/{id}", adminHandler.UpsertPlan)
		r.Post("/plans/{id}/multiplier", adminHandler.SetPlanMultiplier)
		r.Post("/global-multiplier", adminHandler.SetGlobalMultiplier)
		r.Post("/reward-pool/fund", adminHandler.FundPool)
	})

	return r
}

// healthHandler pings the store and reports readiness
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "health", "database is unreachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
