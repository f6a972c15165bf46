package request

// SubmitBookingRequest is a patient's reservation of one slot. The patient email is the
// verified caller identity, not part of the body.
type SubmitBookingRequest struct {
	Treatment       string `json:"treatment" validate:"required,max=100"`
	AppointmentDate string `json:"appointment_date" validate:"required,date"`
	Slot            string `json:"slot" validate:"required,max=50"`
}
