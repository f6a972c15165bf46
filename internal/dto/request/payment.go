package request

type ChargeIntentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

// RecordPaymentRequest confirms a charge the client completed with the payment provider.
// AmountMinor must equal the catalog price of the booked treatment.
type RecordPaymentRequest struct {
	BookingID     string `json:"booking_id" validate:"required,uuid"`
	AmountMinor   int64  `json:"amount_minor" validate:"required,gt=0"`
	TransactionID string `json:"transaction_id" validate:"required,max=255"`
}
