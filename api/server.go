/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the browser frontend

ROUTE GROUPS:
  /api/properties/*            Registry, policies, ledger, reports
  /api/owners/*                Per-owner views (overdue, summary)
  /api/projects/*              Exceptional projects
  /api/outcomes/*              Monthly outcome state machine
  /api/exceptional-outcomes/*  Project outcome state machine
  /api/backup, /api/restore    Snapshot round-trip

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

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

	r.Route("/api", func(r chi.Router) {
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.CreateProperty)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProperty)

				r.Get("/owners", h.ListOwners)
				r.Post("/owners", h.CreateOwner)
				r.Get("/units", h.ListUnits)
				r.Post("/units", h.CreateUnit)
				r.Get("/unit-types", h.ListUnitTypes)
				r.Post("/unit-types", h.CreateUnitType)
				r.Delete("/unit-types/{unitTypeID}", h.DeleteUnitType)
				r.Get("/categories", h.ListCategories)
				r.Post("/categories", h.CreateCategory)
				r.Post("/categories/{categoryID}/archive", h.ArchiveCategory)

				r.Get("/policies/{year}", h.ListPolicies)
				r.Put("/policies/{year}", h.UpdatePolicies)
				r.Get("/policies/{year}/{unitTypeID}", h.ResolvePolicy)

				r.Post("/payments", h.RecordPayment)
				r.Put("/payments/status", h.SetPaymentStatus)

				r.Get("/outcomes", h.ListOutcomes)
				r.Post("/outcomes", h.SaveOutcome)

				r.Get("/projects", h.ListProjects)
				r.Post("/projects", h.CreateProject)

				r.Route("/reports", func(r chi.Router) {
					r.Get("/monthly-income", h.GetMonthlyIncomeReport)
					r.Get("/yearly-income", h.GetYearlyIncomeReport)
					r.Get("/monthly-outcome", h.GetMonthlyOutcomeReport)
					r.Get("/yearly-outcome", h.GetYearlyOutcomeReport)
					r.Get("/balance", h.GetBalanceReport)
					r.Get("/deficit", h.GetDeficitReport)
					r.Get("/year-deficit", h.GetYearDeficitReport)
					r.Get("/income-summary", h.GetIncomeSummaryReport)
				})
			})
		})

		r.Route("/owners/{id}", func(r chi.Router) {
			r.Get("/overdue", h.GetOverdue)
			r.Get("/summary", h.GetOwnerSummary)
		})

		r.Get("/payments/{id}/history", h.GetPaymentHistory)

		r.Route("/outcomes/{id}", func(r chi.Router) {
			r.Post("/confirm", h.ConfirmOutcome)
			r.Post("/cancel", h.CancelOutcome)
			r.Get("/transactions", h.GetOutcomeTransactions)
		})

		r.Route("/projects/{id}", func(r chi.Router) {
			r.Post("/contributors", h.AddExternalContributor)
			r.Get("/contributions", h.ListContributions)
			r.Post("/contributions", h.RecordContribution)
			r.Get("/history", h.GetContributionHistory)
			r.Post("/outcomes", h.CreateExceptionalOutcome)
		})

		r.Route("/exceptional-outcomes/{id}", func(r chi.Router) {
			r.Post("/confirm", h.ConfirmExceptionalOutcome)
			r.Post("/cancel", h.CancelExceptionalOutcome)
		})

		r.Get("/backup", h.ExportBackup)
		r.Post("/restore", h.ImportBackup)
	})

	return r
}
