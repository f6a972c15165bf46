package wire

import (
	"doctors-portal/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, auth *adaptor.AuthHandler, h *adaptor.UserHandler, g guards) {
	r.Get("/api/jwt", auth.IssueToken)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Get("/admin/{email}", h.CheckAdmin)

		r.Group(func(r chi.Router) {
			r.Use(g.auth, g.admin)

			r.Get("/", h.GetAllUsers)
			r.Put("/admin/{id}", h.PromoteToAdmin)
		})
	})
}

func wireDoctor(r chi.Router, h *adaptor.DoctorHandler, g guards) {
	r.Route("/api/doctors", func(r chi.Router) {
		r.Use(g.auth, g.admin)

		r.Post("/", h.CreateDoctor)
		r.Get("/", h.GetAllDoctors)
		r.Delete("/{id}", h.DeleteDoctor)
	})
}
