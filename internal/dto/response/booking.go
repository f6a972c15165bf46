package response

import (
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/pkg/utils"
)

type TreatmentAvailabilityResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PriceMinor int64    `json:"price_minor"`
	Slots      []string `json:"slots"`
}

type BookingResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Treatment       string    `json:"treatment"`
	AppointmentDate string    `json:"appointment_date"`
	Slot            string    `json:"slot"`
	Paid            bool      `json:"paid"`
	TransactionID   *string   `json:"transaction_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func TreatmentToAvailability(t *entity.TreatmentOption) TreatmentAvailabilityResponse {
	slots := t.Slots
	if slots == nil {
		slots = []string{}
	}
	return TreatmentAvailabilityResponse{
		ID:         t.ID.String(),
		Name:       t.Name,
		PriceMinor: t.PriceMinor,
		Slots:      slots,
	}
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID.String(),
		Email:           b.Email,
		Treatment:       b.Treatment,
		AppointmentDate: utils.FormatDate(b.AppointmentDate),
		Slot:            b.Slot,
		Paid:            b.Paid,
		TransactionID:   b.TransactionID,
		CreatedAt:       b.CreatedAt,
	}
}
