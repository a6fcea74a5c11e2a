package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the full HTTP surface.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/analyze", func(r chi.Router) {
			r.Post("/momentum", h.HandleAnalyzeMomentum)
			r.Post("/risk", h.HandleAnalyzeRisk)
			r.Post("/full", h.HandleAnalyzeFull)
		})
		r.Route("/trade", func(r chi.Router) {
			r.Post("/cycle", h.HandleRunCycle)
			r.Post("/capital", h.HandleSetCapital)
		})
		r.Post("/candles/collect", h.HandleCollectCandles)
		r.Post("/backtest", h.HandleBacktest)
		r.Get("/status", h.HandleStatus)
		r.Get("/config", h.HandleConfig)
		r.Get("/positions", h.HandlePositions)
		r.Get("/trades", h.HandleTrades)
	})

	return r
}
