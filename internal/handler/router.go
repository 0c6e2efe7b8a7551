package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/impact-dashboard/internal/middleware"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса дашбордов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/leaderboard/{role}", h.GetLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(h.sessionMiddleware.Middleware)

			r.Get("/dashboard/{role}/{id}", h.GetDashboard)
			r.Post("/refresh", h.Refresh)

			r.Post("/donations", h.CreateRecord(model.CollectionDonations))
			r.Post("/school-projects", h.CreateRecord(model.CollectionSchoolProjects))
			r.Post("/ngo-projects", h.CreateRecord(model.CollectionNgoProjects))
			r.Delete("/{collection}/{id}", h.DeleteRecord)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
