package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the REST surface onto a chi mux.
func NewRouter(h *HTTPHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/booth", func(r chi.Router) {
			r.Get("/", h.GetBooth)
			r.Post("/advance", h.AdvanceBooth)
			r.Post("/skip", h.SkipBooth)
			r.Post("/replace", h.ReplaceBooth)
			r.Post("/vote", h.Vote)
			r.Post("/favorite", h.Favorite)
			r.Get("/history", h.GetHistory)
		})

		r.Route("/waitlist", func(r chi.Router) {
			r.Get("/", h.GetWaitlist)
			r.Post("/", h.JoinWaitlist)
			r.Delete("/", h.ClearWaitlist)
			r.Put("/move", h.MoveWaitlist)
			r.Put("/lock", h.LockWaitlist)
			r.Delete("/{id}", h.LeaveWaitlist)
		})

		r.Route("/users", func(r chi.Router) {
			r.Put("/status", h.SetStatus)
			r.Put("/{id}/role", h.ChangeRole)
			r.Put("/{id}/username", h.ChangeUsername)
			r.Post("/{id}/ban", h.BanUser)
			r.Post("/{id}/mute", h.MuteUser)
		})
	})

	return r
}
