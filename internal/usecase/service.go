package usecase

import (
	"context"
	"time"

	"doctors-portal/internal/data/repository"
	"doctors-portal/pkg/utils"

	"go.uber.org/zap"
)

// Cache is the read-through store for computed availability. Entries are never
// deleted; readers key them by a counter that admissions bump.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// Version returns the counter stored at key, zero when absent.
	Version(ctx context.Context, key string) (int64, error)
	// Bump increments the counter at key and keeps it for at least ttl (forever when ttl <= 0).
	Bump(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// EventPublisher emits domain events after a ledger mutation has committed.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// PaymentGateway creates a charge intent with the external provider and returns its
// client secret.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (string, error)
}

// Deps carries the optional collaborators. Nil Cache disables caching; nil Publisher
// drops events.
type Deps struct {
	Cache     Cache
	Publisher EventPublisher
	Gateway   PaymentGateway
}

type Service struct {
	Availability AvailabilityService
	Booking      BookingService
	Payment      PaymentService
	Auth         AuthService
	User         UserService
	Doctor       DoctorService
}

func NewService(repo *repository.Repository, deps Deps, config *utils.Config, log *zap.Logger) *Service {
	availability := NewAvailabilityService(repo.Treatment, repo.Booking, deps.Cache, config.Redis.AvailabilityTTL, log)

	return &Service{
		Availability: availability,
		Booking:      NewBookingService(repo.Treatment, repo.Booking, availability, deps.Publisher, log),
		Payment:      NewPaymentService(repo, deps.Gateway, deps.Publisher, config.Payment.Currency, log),
		Auth:         NewAuthService(repo.User, config.JWT, log),
		User:         NewUserService(repo.User, log),
		Doctor:       NewDoctorService(repo.Doctor, log),
	}
}
