package usecase

import (
	"errors"
	"fmt"
	"time"

	"doctors-portal/internal/data/repository"
	"doctors-portal/pkg/utils"
)

// ValidationError rejects input the caller must correct: unknown treatment, slot outside
// the template, malformed fields.
type ValidationError struct {
	Field   string
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return "validation failed: " + utils.FormatValidationErrors(e.Fields)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ConflictKind string

const (
	DuplicatePatientBooking ConflictKind = "duplicate_patient_booking"
	SlotAlreadyTaken        ConflictKind = "slot_already_taken"
)

// ConflictError is a booking admission rejected by one of the ledger uniqueness rules.
type ConflictError struct {
	Kind      ConflictKind
	Treatment string
	Date      time.Time
	Slot      string
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case DuplicatePatientBooking:
		return fmt.Sprintf("you already have a booking for %s on %s", e.Treatment, utils.FormatDate(e.Date))
	default:
		return fmt.Sprintf("slot %s for %s on %s is already taken", e.Slot, e.Treatment, utils.FormatDate(e.Date))
	}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AlreadySettledError reports a booking settled under a different transaction reference.
type AlreadySettledError struct {
	BookingID     string
	TransactionID string
}

func (e *AlreadySettledError) Error() string {
	if e.TransactionID == "" {
		return fmt.Sprintf("booking %s is already settled", e.BookingID)
	}
	return fmt.Sprintf("booking %s is already settled by transaction %s", e.BookingID, e.TransactionID)
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// StorageUnavailableError is transient. Admission and settlement are atomic per key, so
// the whole operation is safe to retry.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("%s: storage unavailable: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// GatewayError wraps a failure of the external payment provider.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment provider: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// storageError turns a repository failure into StorageUnavailableError when it is
// transient, otherwise wraps it with op.
func storageError(op string, err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return &StorageUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
