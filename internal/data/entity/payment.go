package entity

import (
	"github.com/google/uuid"
)

type Payment struct {
	BaseSimple
	BookingID     uuid.UUID `db:"booking_id"`
	Email         string    `db:"email"`
	AmountMinor   int64     `db:"amount_minor"`
	Currency      string    `db:"currency"`
	TransactionID string    `db:"transaction_id"`
}
