package wire

import (
	"doctors-portal/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAvailability(r chi.Router, h *adaptor.AvailabilityHandler) {
	// public catalog reads
	r.Get("/api/appointment-options", h.GetAppointmentOptions)
	r.Get("/api/v2/appointment-options", h.GetAppointmentOptionsV2)
	r.Get("/api/appointment-specialties", h.GetSpecialties)
}
