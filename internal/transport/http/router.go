package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter wires the order endpoints behind the shared middleware stack.
func NewRouter(svc OrderService, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	h := NewOrderHandler(svc, logger)

	r.Get("/health", HealthHandler)
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/{orderID}", h.GetOrder)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, logger, http.StatusNotFound, codeNotFound, "resource not found", nil)
	})
	return r
}
