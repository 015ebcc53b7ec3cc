package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/handler"
	"github.com/josh-kwaku/giro-backend/internal/idempotency"
	"github.com/josh-kwaku/giro-backend/internal/middleware"
)

type handlers struct {
	health     *handler.HealthHandler
	auth       *handler.AuthHandler
	users      *handler.UserHandler
	minoristas *handler.MinoristaHandler
	banks      *handler.BankHandler
	accounts   *handler.BankAccountHandler
	rates      *handler.RateHandler
	giros      *handler.GiroHandler
}

func newRouter(h handlers, jwtSecret string, idem *idempotency.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Tracing)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Idempotent-Replayed"},
		MaxAge:         86400,
	}))

	r.Get("/health/live", h.health.Liveness)
	r.Get("/health/ready", h.health.Readiness)

	admin := middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)
	executor := middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin, domain.RoleTransferencista)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))
		r.Use(middleware.Logging)
		r.Use(middleware.Recovery)
		if idem != nil {
			r.Use(middleware.Idempotency(idem))
		}

		r.With(middleware.RequireRole(domain.RoleSuperAdmin)).Post("/tokens", h.auth.IssueToken)

		r.Get("/me", h.users.Me)
		r.With(admin).Post("/users", h.users.Create)

		r.Route("/transferencistas", func(r chi.Router) {
			r.With(admin).Post("/", h.users.CreateTransferencista)
			r.With(executor).Put("/{id}/availability", h.users.SetAvailability)
		})

		r.Route("/minoristas", func(r chi.Router) {
			r.With(admin).Post("/", h.minoristas.Create)
			r.Get("/{id}", h.minoristas.Get)
			r.Get("/{id}/transactions", h.minoristas.Transactions)
			r.With(admin).Post("/{id}/recharges", h.minoristas.Recharge)
			r.With(admin).Post("/{id}/adjustments", h.minoristas.Adjust)
			r.With(admin).Post("/{id}/reconcile", h.minoristas.Reconcile)
		})

		r.Route("/banks", func(r chi.Router) {
			r.Get("/", h.banks.List)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.banks.Create)
				r.Post("/{id}/assignments", h.banks.AddAssignment)
				r.Get("/{id}/assignments", h.banks.ListAssignments)
				r.Post("/{id}/transactions", h.banks.PostTransaction)
				r.Get("/{id}/transactions", h.banks.Transactions)
			})
		})

		r.Route("/bank-accounts", func(r chi.Router) {
			r.With(admin).Post("/", h.accounts.Create)
			r.With(middleware.RequireRole(domain.RoleTransferencista)).Get("/mine", h.accounts.Mine)
			r.Get("/{id}", h.accounts.Get)
			r.Get("/{id}/entries", h.accounts.Entries)
			r.With(admin).Post("/{id}/entries", h.accounts.PostEntry)
		})

		r.Route("/rates", func(r chi.Router) {
			r.Get("/current", h.rates.Current)
			r.Get("/", h.rates.History)
			r.Get("/{id}", h.rates.Get)
			r.With(admin).Post("/", h.rates.Publish)
		})

		r.Route("/giros", func(r chi.Router) {
			r.Post("/", h.giros.Create)
			r.Get("/", h.giros.List)
			r.Get("/{id}", h.giros.Get)
			r.Get("/{id}/history", h.giros.History)
			r.With(admin).Post("/{id}/assign", h.giros.Assign)
			r.With(executor).Post("/{id}/start", h.giros.Start)
			r.With(executor).Post("/{id}/complete", h.giros.Complete)
			r.With(executor).Post("/{id}/return", h.giros.Return)
			r.Post("/{id}/cancel", h.giros.Cancel)
		})
	})

	return r
}
