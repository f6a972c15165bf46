package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	EventBookingAdmitted = "booking.admitted"
	EventBookingSettled  = "booking.settled"
)

type BookingAdmittedEvent struct {
	BookingID       string    `json:"booking_id"`
	Email           string    `json:"email"`
	Treatment       string    `json:"treatment"`
	AppointmentDate string    `json:"appointment_date"`
	Slot            string    `json:"slot"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type BookingSettledEvent struct {
	BookingID     string    `json:"booking_id"`
	PaymentID     string    `json:"payment_id"`
	TransactionID string    `json:"transaction_id"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// publish is best effort: the ledger write already committed.
func publish(ctx context.Context, p EventPublisher, log *zap.Logger, key string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, payload); err != nil {
		log.Warn("Failed to publish event", zap.String("event", key), zap.Error(err))
	}
}
