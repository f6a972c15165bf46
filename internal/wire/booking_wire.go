package wire

import (
	"time"

	"doctors-portal/internal/adaptor"
	"doctors-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

func wireBooking(r chi.Router, h *adaptor.BookingHandler, g guards, config *utils.Config) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(g.auth)

		r.Get("/", h.GetUserBookings)
		r.Get("/{id}", h.GetBookingByID)

		r.With(httprate.LimitByIP(config.RateLimit.BookingsPerMinute, time.Minute)).
			Post("/", h.SubmitBooking)
	})
}

func wirePayment(r chi.Router, h *adaptor.PaymentHandler, g guards) {
	r.Group(func(r chi.Router) {
		r.Use(g.auth)

		r.Post("/api/create-payment-intent", h.CreatePaymentIntent)
		r.Post("/api/payments", h.RecordPayment)
	})
}
