package repository

import (
	"context"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingFilter narrows FindActive; zero-valued fields are ignored.
type BookingFilter struct {
	Email     string
	Treatment string
	Date      *time.Time
}

// SettleResult is returned by PaymentRepository.Settle. Replayed is true when the
// booking was already settled under the same transaction reference.
type SettleResult struct {
	Payment  *entity.Payment
	Replayed bool
}

type TreatmentRepository interface {
	FindAll(ctx context.Context) ([]*entity.TreatmentOption, error)
	FindByName(ctx context.Context, name string) (*entity.TreatmentOption, error)
	FindNames(ctx context.Context) ([]string, error)

	// RemainingSlots lets the datastore compute, per treatment, the template slots
	// not held by any booking on date.
	RemainingSlots(ctx context.Context, date time.Time) ([]*entity.TreatmentOption, error)
}

type BookingRepository interface {
	// InsertIfAbsent commits booking unless (treatment, date, email) or
	// (treatment, date, slot) is already held. Returns ErrPatientAlreadyBooked or ErrSlotTaken.
	InsertIfAbsent(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindActive(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error)
	UpdatePaidStatus(ctx context.Context, id uuid.UUID, transactionID string) error
}

type PaymentRepository interface {
	// Settle records payment and marks its booking paid in one transaction.
	Settle(ctx context.Context, payment *entity.Payment) (*SettleResult, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context) ([]*entity.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error
}

type DoctorRepository interface {
	Create(ctx context.Context, doctor *entity.Doctor) error
	FindAll(ctx context.Context) ([]*entity.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repository struct {
	Treatment TreatmentRepository
	Booking   BookingRepository
	Payment   PaymentRepository
	User      UserRepository
	Doctor    DoctorRepository
}

// NewRepository builds the Postgres-backed repositories.
func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Treatment: NewTreatmentRepository(db, log),
		Booking:   NewBookingRepository(db, log),
		Payment:   NewPaymentRepository(db, log),
		User:      NewUserRepository(db, log),
		Doctor:    NewDoctorRepository(db, log),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}
