package usecase

import (
	"context"
	"fmt"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/dto/response"
	"doctors-portal/pkg/utils"

	"go.uber.org/zap"
)

// Strategy selects how remaining slots are computed. Both return identical results.
type Strategy string

const (
	// StrategyFilter pulls the catalog and the day's bookings and subtracts in process.
	StrategyFilter Strategy = "filter"
	// StrategyAggregate lets the datastore join bookings onto the catalog.
	StrategyAggregate Strategy = "aggregate"
)

type AvailabilityService interface {
	AvailableSlots(ctx context.Context, date string, strategy Strategy) ([]response.TreatmentAvailabilityResponse, error)
	TreatmentNames(ctx context.Context) ([]string, error)
	Invalidate(ctx context.Context, date time.Time)
}

type availabilityService struct {
	treatments repository.TreatmentRepository
	bookings   repository.BookingRepository
	cache      Cache
	ttl        time.Duration
	log        *zap.Logger
}

func NewAvailabilityService(
	treatments repository.TreatmentRepository,
	bookings repository.BookingRepository,
	cache Cache,
	ttl time.Duration,
	log *zap.Logger,
) AvailabilityService {
	return &availabilityService{
		treatments: treatments,
		bookings:   bookings,
		cache:      cache,
		ttl:        ttl,
		log:        log.With(zap.String("service", "availability")),
	}
}

// minGenerationTTL keeps a date's counter well past the entries written under it.
const minGenerationTTL = 24 * time.Hour

func generationKey(date time.Time) string {
	return "availability:gen:" + utils.FormatDate(date)
}

// availabilityKey embeds the date's generation, so a snapshot computed before an
// admission can only ever be stored under the generation that admission retired.
func availabilityKey(strategy Strategy, date time.Time, gen int64) string {
	return fmt.Sprintf("availability:%s:%s:%d", strategy, utils.FormatDate(date), gen)
}

func (s *availabilityService) generationTTL() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	return max(minGenerationTTL, 2*s.ttl)
}

func (s *availabilityService) AvailableSlots(ctx context.Context, dateStr string, strategy Strategy) ([]response.TreatmentAvailabilityResponse, error) {
	date, err := utils.ParseDate(dateStr)
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: err.Error()}
	}
	if strategy != StrategyAggregate {
		strategy = StrategyFilter
	}

	// The generation must be read before the ledger.
	var key string
	if s.cache != nil {
		gen, err := s.cache.Version(ctx, generationKey(date))
		if err != nil {
			s.log.Warn("Availability generation read failed", zap.String("date", dateStr), zap.Error(err))
		} else {
			key = availabilityKey(strategy, date, gen)
			var cached []response.TreatmentAvailabilityResponse
			hit, err := s.cache.GetJSON(ctx, key, &cached)
			if err != nil {
				s.log.Warn("Availability cache read failed", zap.String("key", key), zap.Error(err))
			} else if hit {
				return cached, nil
			}
		}
	}

	var options []*entity.TreatmentOption
	switch strategy {
	case StrategyAggregate:
		options, err = s.treatments.RemainingSlots(ctx, date)
		if err != nil {
			s.log.Error("Failed to aggregate remaining slots", zap.Error(err), zap.String("date", dateStr))
			return nil, storageError("aggregate remaining slots", err)
		}
	default:
		catalog, err := s.treatments.FindAll(ctx)
		if err != nil {
			s.log.Error("Failed to load catalog", zap.Error(err))
			return nil, storageError("load catalog", err)
		}
		booked, err := s.bookings.FindActive(ctx, repository.BookingFilter{Date: &date})
		if err != nil {
			s.log.Error("Failed to load bookings", zap.Error(err), zap.String("date", dateStr))
			return nil, storageError("load bookings", err)
		}
		options = ComputeAvailability(date, catalog, booked)
	}

	out := make([]response.TreatmentAvailabilityResponse, len(options))
	for i, o := range options {
		out[i] = response.TreatmentToAvailability(o)
	}

	if key != "" {
		if err := s.cache.SetJSON(ctx, key, out, s.ttl); err != nil {
			s.log.Warn("Availability cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return out, nil
}

func (s *availabilityService) TreatmentNames(ctx context.Context) ([]string, error) {
	names, err := s.treatments.FindNames(ctx)
	if err != nil {
		s.log.Error("Failed to list treatment names", zap.Error(err))
		return nil, storageError("list treatment names", err)
	}
	return names, nil
}

// Invalidate retires every cached snapshot for date by bumping its generation. It runs
// after a committed admission, so it must not be cut short by the caller going away.
func (s *availabilityService) Invalidate(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	key := generationKey(date)
	if _, err := s.cache.Bump(ctx, key, s.generationTTL()); err != nil {
		s.log.Warn("Availability cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
