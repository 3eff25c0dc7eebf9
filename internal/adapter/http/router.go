package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iho/fxoffice/internal/adapter/http/handler"
	"github.com/iho/fxoffice/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	RateHandler      *handler.RateHandler
	BalanceHandler   *handler.BalanceHandler
	RateSyncHandler  *handler.RateSyncHandler
	AlertHandler     *handler.AlertHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore middleware.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(middleware.Actor)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Currencies
		r.Route("/currencies", func(r chi.Router) {
			r.Post("/", cfg.RateHandler.CreateCurrency)
			r.Get("/", cfg.RateHandler.ListCurrencies)
			r.Get("/{code}", cfg.RateHandler.GetCurrency)
			r.Post("/{code}/base", cfg.RateHandler.SetBaseCurrency)
		})

		// Exchange rates
		r.Route("/rates", func(r chi.Router) {
			r.Post("/", cfg.RateHandler.SetRate)
			r.Post("/deactivate", cfg.RateHandler.DeactivateRate)
			r.Post("/calculate", cfg.RateHandler.CalculateExchange)
			r.Get("/{from}/{to}", cfg.RateHandler.GetCurrentRate)
			r.Get("/{from}/{to}/history", cfg.RateHandler.GetRateHistory)
		})

		// Branch balances
		r.Route("/branches/{branchID}", func(r chi.Router) {
			r.Get("/balances", cfg.BalanceHandler.List)
			r.Route("/balances/{currency}", func(r chi.Router) {
				r.Get("/", cfg.BalanceHandler.Get)
				r.Get("/history", cfg.BalanceHandler.History)
				r.Post("/credit", cfg.BalanceHandler.Credit)
				r.Post("/debit", cfg.BalanceHandler.Debit)
				r.Post("/reserve", cfg.BalanceHandler.Reserve)
				r.Post("/release", cfg.BalanceHandler.Release)
				r.Post("/commit", cfg.BalanceHandler.CommitReserved)
				r.Post("/adjust", cfg.BalanceHandler.Adjust)
				r.Post("/reconcile", cfg.BalanceHandler.Reconcile)
				r.Put("/thresholds", cfg.BalanceHandler.SetThresholds)
			})
			r.Get("/alerts", cfg.AlertHandler.List)
		})

		// Alerts
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/{id}", cfg.AlertHandler.Get)
			r.Post("/{id}/resolve", cfg.AlertHandler.Resolve)
		})

		// Rate sync workflow
		r.Route("/rate-sync", func(r chi.Router) {
			r.Post("/", cfg.RateSyncHandler.Initiate)
			r.Post("/sweep", cfg.RateSyncHandler.Sweep)
			r.Get("/", cfg.RateSyncHandler.List)
			r.Get("/{id}", cfg.RateSyncHandler.Get)
			r.Post("/{id}/approve", cfg.RateSyncHandler.Approve)
			r.Post("/{id}/reject", cfg.RateSyncHandler.Reject)
		})
	})

	return r
}
