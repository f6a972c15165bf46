package repository

import (
	"context"
	"errors"
	"fmt"

	"doctors-portal/internal/data/entity"
	"doctors-portal/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, booking_id, email, amount_minor, currency, transaction_id, created_at`

// Settle locks the booking row, inserts the payment and flips the paid flag, all in one
// transaction. Either both writes are visible or neither is.
func (r *paymentRepository) Settle(ctx context.Context, payment *entity.Payment) (*SettleResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin settlement transaction", zap.Error(err))
		return nil, fmt.Errorf("begin settlement: %w", classifyPgError(err))
	}
	defer tx.Rollback(ctx)

	var (
		paid          bool
		transactionID *string
	)
	err = tx.QueryRow(ctx, `
		SELECT paid, transaction_id FROM bookings WHERE id = $1 FOR UPDATE
	`, payment.BookingID).Scan(&paid, &transactionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.log.Error("Failed to lock booking for settlement",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return nil, fmt.Errorf("lock booking %s: %w", payment.BookingID.String(), classifyPgError(err))
	}

	if paid {
		if transactionID == nil || *transactionID != payment.TransactionID {
			return nil, ErrAlreadySettled
		}
		existing, err := scanPayment(tx.QueryRow(ctx,
			`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, payment.BookingID))
		if err != nil {
			r.log.Error("Failed to load existing payment",
				zap.Error(err),
				zap.String("booking_id", payment.BookingID.String()),
			)
			return nil, fmt.Errorf("load payment for booking %s: %w", payment.BookingID.String(), classifyPgError(err))
		}
		return &SettleResult{Payment: existing, Replayed: true}, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		payment.ID,
		payment.BookingID,
		payment.Email,
		payment.AmountMinor,
		payment.Currency,
		payment.TransactionID,
		payment.CreatedAt,
	)
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintPaymentBooking {
		return nil, ErrAlreadySettled
	}
	if err != nil {
		r.log.Error("Failed to insert payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return nil, fmt.Errorf("insert payment for booking %s: %w", payment.BookingID.String(), classifyPgError(err))
	}

	if err := updatePaidStatus(ctx, tx, payment.BookingID, payment.TransactionID, payment.CreatedAt); err != nil {
		r.log.Error("Failed to mark booking paid",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit settlement", zap.Error(err), zap.String("booking_id", payment.BookingID.String()))
		return nil, fmt.Errorf("commit settlement for booking %s: %w", payment.BookingID.String(), classifyPgError(err))
	}

	return &SettleResult{Payment: payment}, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment by booking ID %s: %w", bookingID.String(), classifyPgError(err))
	}

	return payment, nil
}

func scanPayment(row rowScanner) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Email,
		&p.AmountMinor,
		&p.Currency,
		&p.TransactionID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
