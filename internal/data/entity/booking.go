package entity

import (
	"time"
)

type Booking struct {
	Base
	Email           string    `db:"email"`
	Treatment       string    `db:"treatment"`
	AppointmentDate time.Time `db:"appointment_date"`
	Slot            string    `db:"slot"`
	Paid            bool      `db:"paid"`
	TransactionID   *string   `db:"transaction_id"`
}

// SettledWith reports whether the booking is paid under the given transaction reference.
func (b *Booking) SettledWith(transactionID string) bool {
	return b.Paid && b.TransactionID != nil && *b.TransactionID == transactionID
}
