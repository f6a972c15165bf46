package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicate            = errors.New("record already exists")
	ErrSlotTaken            = errors.New("slot already taken")
	ErrPatientAlreadyBooked = errors.New("patient already booked this treatment on this date")
	ErrAlreadySettled       = errors.New("booking already settled")
	ErrUnavailable          = errors.New("storage unavailable")
)

// Postgres constraint names, see pkg/database/migrations.
const (
	constraintBookingSlot    = "uq_bookings_slot"
	constraintBookingPatient = "uq_bookings_patient"
	constraintPaymentBooking = "uq_payments_booking"
	constraintUserEmail      = "users_email_key"
	pgUniqueViolation        = "23505"
)

// Unavailable marks err as a transient storage failure.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// classifyPgError wraps connection-level and retryable failures with ErrUnavailable.
// Constraint and syntax errors are returned unchanged.
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "57P01", "57P03":
			return Unavailable(err)
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return Unavailable(err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return Unavailable(err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return Unavailable(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Unavailable(err)
	}

	return err
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
