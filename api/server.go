/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This is
  the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. requestLogger: Structured request logging via logrus
  4. CORS:       Cross-origin requests for a local frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, log *logrus.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Reference data
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.SaveWorker)
		})
		r.Route("/functions", func(r chi.Router) {
			r.Get("/", h.ListFunctions)
			r.Post("/", h.SaveFunction)
		})

		// Source records
		r.Route("/workdays", func(r chi.Router) {
			r.Get("/", h.ListWorkedDays)
			r.Post("/", h.SaveWorkedDay)
		})
		r.Route("/bonuses", func(r chi.Router) {
			r.Get("/", h.ListBonuses)
			r.Post("/", h.SaveBonus)
		})
		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", h.ListDiscounts)
			r.Post("/", h.SaveDiscount)
		})
		r.Route("/taxes", func(r chi.Router) {
			r.Get("/", h.ListTaxCollections)
			r.Post("/", h.SaveTaxCollection)
		})

		// Derived ledger
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", h.GetLedger)
			r.Get("/{date}", h.GetLedgerEntry)
			r.Put("/{date}/workers/{workerID}/paid", h.SetPaid)
		})

		// Advisory preview
		r.Post("/preview/daily-value", h.PreviewDailyValue)

		// Dev only
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}
