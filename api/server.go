/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zap request log (method, path, status, duration, request id)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/materials/*    Raw material catalog
  /api/products/*     Products, HPP, forecast, XLSX report
  /api/overheads/*    Overhead costs
  /api/labor-rates/*  Labor wage rates
  /api/sales/*        Sales history and demo data
  /api/restock        Products whose stock will not cover demand
  /api/dashboard      Headline figures
  /api/healthz        Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

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
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured. allowedOrigins
// feeds the CORS policy.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", h.Health)

		// Material routes
		r.Route("/materials", func(r chi.Router) {
			r.Get("/", h.ListMaterials)
			r.Post("/", h.CreateMaterial)
			r.Get("/{id}", h.GetMaterial)
			r.Put("/{id}", h.UpdateMaterial)
			r.Delete("/{id}", h.DeleteMaterial)
		})

		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Post("/{id}/hpp", h.CalculateHPP)
			r.Get("/{id}/forecast", h.GetForecast)
			r.Get("/{id}/report", h.ExportReport)
		})

		// Overhead routes
		r.Route("/overheads", func(r chi.Router) {
			r.Get("/", h.ListOverheads)
			r.Post("/", h.CreateOverhead)
			r.Put("/{id}", h.UpdateOverhead)
			r.Delete("/{id}", h.DeleteOverhead)
		})

		// Labor rate routes
		r.Route("/labor-rates", func(r chi.Router) {
			r.Get("/", h.ListLaborRates)
			r.Post("/", h.CreateLaborRate)
			r.Put("/{id}", h.UpdateLaborRate)
			r.Delete("/{id}", h.DeleteLaborRate)
		})

		// Sales routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Post("/demo", h.GenerateDemoSales)
			r.Delete("/{id}", h.DeleteSale)
		})

		r.Get("/restock", h.GetRestock)
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}

// requestLogger logs one line per completed request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("request completed",
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
