package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, email, treatment, appointment_date, slot, paid, transaction_id, created_at, updated_at`

// InsertIfAbsent runs the patient check and the insert in one transaction. The
// unique indexes uq_bookings_patient and uq_bookings_slot make the insert itself the
// serialization point, so concurrent callers for the same key cannot both commit.
func (r *bookingRepository) InsertIfAbsent(ctx context.Context, booking *entity.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin booking transaction", zap.Error(err))
		return fmt.Errorf("begin booking transaction: %w", classifyPgError(err))
	}
	defer tx.Rollback(ctx)

	var existingID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM bookings
		WHERE treatment = $1 AND appointment_date = $2 AND email = $3
		LIMIT 1
	`, booking.Treatment, booking.AppointmentDate, booking.Email).Scan(&existingID)
	if err == nil {
		return ErrPatientAlreadyBooked
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error("Failed to check patient booking",
			zap.Error(err),
			zap.String("email", booking.Email),
			zap.String("treatment", booking.Treatment),
		)
		return fmt.Errorf("check patient booking: %w", classifyPgError(err))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		booking.ID,
		booking.Email,
		booking.Treatment,
		booking.AppointmentDate,
		booking.Slot,
		booking.Paid,
		booking.TransactionID,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintBookingPatient:
			return ErrPatientAlreadyBooked
		case constraintBookingSlot:
			return ErrSlotTaken
		}
	}
	if err != nil {
		r.log.Error("Failed to insert booking",
			zap.Error(err),
			zap.String("treatment", booking.Treatment),
			zap.String("slot", booking.Slot),
		)
		return fmt.Errorf("insert booking %s: %w", booking.ID.String(), classifyPgError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit booking", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return fmt.Errorf("commit booking %s: %w", booking.ID.String(), classifyPgError(err))
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), classifyPgError(err))
	}

	return booking, nil
}

func (r *bookingRepository) FindActive(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Email != "" {
		args = append(args, filter.Email)
		conds = append(conds, fmt.Sprintf("email = $%d", len(args)))
	}
	if filter.Treatment != "" {
		args = append(args, filter.Treatment)
		conds = append(conds, fmt.Sprintf("treatment = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conds = append(conds, fmt.Sprintf("appointment_date = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY appointment_date, created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find active bookings",
			zap.Error(err),
			zap.String("email", filter.Email),
			zap.String("treatment", filter.Treatment),
		)
		return nil, fmt.Errorf("find active bookings: %w", classifyPgError(err))
	}
	defer rows.Close()

	bookings := make([]*entity.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", classifyPgError(err))
	}
	return bookings, nil
}

func (r *bookingRepository) UpdatePaidStatus(ctx context.Context, id uuid.UUID, transactionID string) error {
	return updatePaidStatus(ctx, r.db, id, transactionID, time.Now())
}

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// updatePaidStatus flips paid only while it is still false. A booking already paid
// under the same reference is accepted as a no-op.
func updatePaidStatus(ctx context.Context, q execQuerier, id uuid.UUID, transactionID string, now time.Time) error {
	result, err := q.Exec(ctx, `
		UPDATE bookings
		SET paid = TRUE, transaction_id = $2, updated_at = $3
		WHERE id = $1 AND paid = FALSE
	`, id, transactionID, now)
	if err != nil {
		return fmt.Errorf("update booking %s paid status: %w", id.String(), classifyPgError(err))
	}
	if result.RowsAffected() == 1 {
		return nil
	}

	var current *string
	err = q.QueryRow(ctx, `SELECT transaction_id FROM bookings WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reload booking %s: %w", id.String(), classifyPgError(err))
	}
	if current != nil && *current == transactionID {
		return nil
	}
	return ErrAlreadySettled
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.Email,
		&b.Treatment,
		&b.AppointmentDate,
		&b.Slot,
		&b.Paid,
		&b.TransactionID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
