// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/etoile-yachts/shipshape/internal/auth"
)

// Router assembles the admin HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
	jwt        *auth.JWTManager

	// AuthDisabled skips bearer-token enforcement. Only for local
	// development; the config layer refuses it outside dev mode.
	authDisabled bool
}

// NewRouter creates a router. jwt may be nil only when authDisabled.
func NewRouter(handler *Handler, middleware *Middleware, jwt *auth.JWTManager, authDisabled bool) *Router {
	if middleware == nil {
		middleware = NewMiddleware(nil)
	}
	return &Router{
		handler:      handler,
		middleware:   middleware,
		jwt:          jwt,
		authDisabled: authDisabled,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS must be
	// global to handle OPTIONS preflight.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health endpoints stay unauthenticated so orchestrators can probe
	// before a token exists.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Reconciliation admin endpoints.
	r.Route("/api/v1/reconcile", func(r chi.Router) {
		r.Use(SecurityHeaders())
		r.Use(PrometheusMetrics())
		r.Use(router.authenticate())

		// Trigger endpoints get the strict limiter; a flood here fans
		// out into probe traffic.
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitTrigger())
			r.Post("/validate-all", router.handler.TriggerValidation)
			r.Post("/validate-collection/{collection}", router.handler.TriggerCollection)
			r.Post("/fix-relative-urls", router.handler.TriggerFix)
			r.Post("/tasks/{id}/retry", router.handler.RetryTask)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimit())
			r.Get("/tasks", router.handler.ListTasks)
			r.Get("/tasks/{id}", router.handler.GetTask)
			r.Get("/reports", router.handler.ListReports)
			r.Get("/reports/{id}", router.handler.GetReport)
			r.Get("/schedules", router.handler.ListSchedules)
			r.Put("/schedules/{id}", router.handler.UpdateSchedule)
		})
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (router *Router) authenticate() func(http.Handler) http.Handler {
	if router.authDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return Authenticate(router.jwt)
}
