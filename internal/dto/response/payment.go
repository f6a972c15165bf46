package response

import (
	"time"

	"doctors-portal/internal/data/entity"
)

type ChargeIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount_minor"`
	Currency     string `json:"currency"`
}

// PaymentResponse confirms a settlement. Replayed is set when the same transaction
// reference had already settled the booking.
type PaymentResponse struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	Email         string    `json:"email"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transaction_id"`
	Replayed      bool      `json:"replayed"`
	CreatedAt     time.Time `json:"created_at"`
}

func PaymentToResponse(p *entity.Payment, replayed bool) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID.String(),
		BookingID:     p.BookingID.String(),
		Email:         p.Email,
		AmountMinor:   p.AmountMinor,
		Currency:      p.Currency,
		TransactionID: p.TransactionID,
		Replayed:      replayed,
		CreatedAt:     p.CreatedAt,
	}
}
