package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/dto/request"
	"doctors-portal/internal/dto/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func booked(treatment, slot string, date time.Time) *entity.Booking {
	return &entity.Booking{
		Base:            entity.Base{ID: uuid.New()},
		Email:           uuid.NewString() + "@x.com",
		Treatment:       treatment,
		AppointmentDate: date,
		Slot:            slot,
	}
}

func TestComputeAvailability(t *testing.T) {
	catalog := []*entity.TreatmentOption{
		{Name: "Cleaning", Slots: []string{"9AM", "10AM", "11AM"}},
		{Name: "Surgery", Slots: []string{"2PM", "3PM"}},
	}

	tests := []struct {
		name     string
		bookings []*entity.Booking
		want     map[string][]string
	}{
		{
			name: "empty ledger returns full templates",
			want: map[string][]string{"Cleaning": {"9AM", "10AM", "11AM"}, "Surgery": {"2PM", "3PM"}},
		},
		{
			name:     "booked slot removed, order kept",
			bookings: []*entity.Booking{booked("Cleaning", "10AM", jan10)},
			want:     map[string][]string{"Cleaning": {"9AM", "11AM"}, "Surgery": {"2PM", "3PM"}},
		},
		{
			name: "other dates ignored",
			bookings: []*entity.Booking{
				booked("Cleaning", "9AM", jan10.AddDate(0, 0, 1)),
				booked("Surgery", "2PM", jan10.AddDate(0, 0, -1)),
			},
			want: map[string][]string{"Cleaning": {"9AM", "10AM", "11AM"}, "Surgery": {"2PM", "3PM"}},
		},
		{
			name: "fully booked treatment returns empty slots",
			bookings: []*entity.Booking{
				booked("Surgery", "2PM", jan10),
				booked("Surgery", "3PM", jan10),
			},
			want: map[string][]string{"Cleaning": {"9AM", "10AM", "11AM"}, "Surgery": {}},
		},
		{
			name:     "booking for unknown treatment is harmless",
			bookings: []*entity.Booking{booked("Whitening", "9AM", jan10)},
			want:     map[string][]string{"Cleaning": {"9AM", "10AM", "11AM"}, "Surgery": {"2PM", "3PM"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAvailability(jan10, catalog, tt.bookings)
			require.Len(t, got, len(catalog))
			for _, option := range got {
				assert.Equal(t, tt.want[option.Name], option.Slots, option.Name)
			}
		})
	}

	assert.Equal(t, []string{"9AM", "10AM", "11AM"}, catalog[0].Slots, "catalog must not be mutated")
}

func TestAvailableSlotsScenario(t *testing.T) {
	ctx := context.Background()
	repo := fixtureStore().Repository()
	log := zap.NewNop()

	availability := NewAvailabilityService(repo.Treatment, repo.Booking, nil, 0, log)
	bookings := NewBookingService(repo.Treatment, repo.Booking, availability, nil, log)

	slotsFor := func(name string) []string {
		options, err := availability.AvailableSlots(ctx, "2024-01-10", StrategyFilter)
		require.NoError(t, err)
		for _, o := range options {
			if o.Name == name {
				return o.Slots
			}
		}
		t.Fatalf("treatment %s missing", name)
		return nil
	}

	assert.Equal(t, []string{"9AM", "10AM"}, slotsFor("Cleaning"))

	_, err := bookings.SubmitBooking(ctx, "a@x.com", &request.SubmitBookingRequest{
		Treatment:       "Cleaning",
		AppointmentDate: "2024-01-10",
		Slot:            "9AM",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"10AM"}, slotsFor("Cleaning"))
}

func TestAvailabilityStrategiesAgree(t *testing.T) {
	ctx := context.Background()
	repo := fixtureStore().Repository()
	log := zap.NewNop()

	availability := NewAvailabilityService(repo.Treatment, repo.Booking, nil, 0, log)
	bookings := NewBookingService(repo.Treatment, repo.Booking, availability, nil, log)

	fixtures := []request.SubmitBookingRequest{
		{Treatment: "Cleaning", AppointmentDate: "2024-01-10", Slot: "10AM"},
		{Treatment: "Oral Surgery", AppointmentDate: "2024-01-10", Slot: "2PM"},
		{Treatment: "Oral Surgery", AppointmentDate: "2024-01-10", Slot: "4PM"},
		{Treatment: "Cavity Protection", AppointmentDate: "2024-01-11", Slot: "10AM"},
	}
	for i := range fixtures {
		_, err := bookings.SubmitBooking(ctx, uuid.NewString()+"@x.com", &fixtures[i])
		require.NoError(t, err)
	}

	for _, date := range []string{"2024-01-09", "2024-01-10", "2024-01-11"} {
		filtered, err := availability.AvailableSlots(ctx, date, StrategyFilter)
		require.NoError(t, err)
		aggregated, err := availability.AvailableSlots(ctx, date, StrategyAggregate)
		require.NoError(t, err)
		assert.Equal(t, filtered, aggregated, date)
	}
}

func TestAvailableSlotsOrderedByName(t *testing.T) {
	repo := fixtureStore().Repository()
	availability := NewAvailabilityService(repo.Treatment, repo.Booking, nil, 0, zap.NewNop())

	options, err := availability.AvailableSlots(context.Background(), "2024-01-10", StrategyFilter)
	require.NoError(t, err)

	names := make([]string, len(options))
	for i, o := range options {
		names[i] = o.Name
	}
	assert.Equal(t, []string{"Cavity Protection", "Cleaning", "Oral Surgery"}, names)

	listed, err := availability.TreatmentNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, names, listed)
}

func TestAvailableSlotsInvalidDate(t *testing.T) {
	repo := fixtureStore().Repository()
	availability := NewAvailabilityService(repo.Treatment, repo.Booking, nil, 0, zap.NewNop())

	_, err := availability.AvailableSlots(context.Background(), "10/01/2024", StrategyFilter)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "date", validationErr.Field)
}

func TestAvailableSlotsStorageUnavailable(t *testing.T) {
	repo := fixtureStore().Repository()
	availability := NewAvailabilityService(downTreatments{repo.Treatment}, repo.Booking, nil, 0, zap.NewNop())

	_, err := availability.AvailableSlots(context.Background(), "2024-01-10", StrategyFilter)
	var unavailable *StorageUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.True(t, errors.Is(err, errConnRefused))
}

func slotsOf(options []response.TreatmentAvailabilityResponse, name string) []string {
	for _, o := range options {
		if o.Name == name {
			return o.Slots
		}
	}
	return nil
}

func TestAvailableSlotsCache(t *testing.T) {
	ctx := context.Background()
	repo := fixtureStore().Repository()
	cache := new(mockCache)

	cache.On("Version", mock.Anything, "availability:gen:2024-01-10").Return(int64(2), nil).Once()
	cache.On("GetJSON", mock.Anything, "availability:filter:2024-01-10:2", mock.Anything).Return(false, nil).Once()
	cache.On("SetJSON", mock.Anything, "availability:filter:2024-01-10:2", mock.Anything, time.Minute).Return(nil).Once()

	availability := NewAvailabilityService(repo.Treatment, repo.Booking, cache, time.Minute, zap.NewNop())
	_, err := availability.AvailableSlots(ctx, "2024-01-10", StrategyFilter)
	require.NoError(t, err)

	cache.On("Bump", mock.Anything, "availability:gen:2024-01-10", 24*time.Hour).Return(int64(3), nil).Once()
	availability.Invalidate(ctx, jan10)

	cache.AssertExpectations(t)
}

func TestAvailableSlotsCacheFailureFallsThrough(t *testing.T) {
	repo := fixtureStore().Repository()
	cache := new(mockCache)
	cache.On("Version", mock.Anything, mock.Anything).Return(int64(0), nil)
	cache.On("GetJSON", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	availability := NewAvailabilityService(repo.Treatment, repo.Booking, cache, time.Minute, zap.NewNop())
	options, err := availability.AvailableSlots(context.Background(), "2024-01-10", StrategyAggregate)
	require.NoError(t, err)
	assert.Len(t, options, 3)
}

func TestAvailableSlotsSkipsCacheWithoutGeneration(t *testing.T) {
	repo := fixtureStore().Repository()
	cache := new(mockCache)
	cache.On("Version", mock.Anything, "availability:gen:2024-01-10").Return(int64(0), errors.New("redis down"))

	availability := NewAvailabilityService(repo.Treatment, repo.Booking, cache, time.Minute, zap.NewNop())
	options, err := availability.AvailableSlots(context.Background(), "2024-01-10", StrategyFilter)
	require.NoError(t, err)
	assert.Equal(t, []string{"9AM", "10AM"}, slotsOf(options, "Cleaning"))

	cache.AssertNotCalled(t, "GetJSON", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAvailableSlotsCacheAdmissionDuringRead(t *testing.T) {
	ctx := context.Background()
	repo := fixtureStore().Repository()
	log := zap.NewNop()
	cache := newMemCache()

	ledger := &interleavedBookings{BookingRepository: repo.Booking}
	availability := NewAvailabilityService(repo.Treatment, ledger, cache, time.Minute, log)
	bookings := NewBookingService(repo.Treatment, repo.Booking, availability, nil, log)

	// The admission commits after the read has loaded the ledger but before it
	// writes its snapshot to the cache.
	ledger.hook = func() {
		_, err := bookings.SubmitBooking(ctx, "a@x.com", &request.SubmitBookingRequest{
			Treatment:       "Cleaning",
			AppointmentDate: "2024-01-10",
			Slot:            "9AM",
		})
		require.NoError(t, err)
	}

	first, err := availability.AvailableSlots(ctx, "2024-01-10", StrategyFilter)
	require.NoError(t, err)
	assert.Equal(t, []string{"9AM", "10AM"}, slotsOf(first, "Cleaning"))

	for _, strategy := range []Strategy{StrategyFilter, StrategyAggregate} {
		options, err := availability.AvailableSlots(ctx, "2024-01-10", strategy)
		require.NoError(t, err)
		assert.Equal(t, []string{"10AM"}, slotsOf(options, "Cleaning"), string(strategy))
	}
}

func TestAvailableSlotsCachedUntilAdmission(t *testing.T) {
	ctx := context.Background()
	repo := fixtureStore().Repository()
	log := zap.NewNop()
	cache := newMemCache()

	availability := NewAvailabilityService(repo.Treatment, repo.Booking, cache, time.Minute, log)
	bookings := NewBookingService(repo.Treatment, repo.Booking, availability, nil, log)

	_, err := availability.AvailableSlots(ctx, "2024-01-10", StrategyFilter)
	require.NoError(t, err)
	assert.Contains(t, cache.entries, "availability:filter:2024-01-10:0")

	_, err = bookings.SubmitBooking(ctx, "a@x.com", &request.SubmitBookingRequest{
		Treatment:       "Cleaning",
		AppointmentDate: "2024-01-10",
		Slot:            "10AM",
	})
	require.NoError(t, err)

	options, err := availability.AvailableSlots(ctx, "2024-01-10", StrategyFilter)
	require.NoError(t, err)
	assert.Equal(t, []string{"9AM"}, slotsOf(options, "Cleaning"))
	assert.Contains(t, cache.entries, "availability:filter:2024-01-10:1")
}

func TestInvalidateIgnoresCanceledRequest(t *testing.T) {
	repo := fixtureStore().Repository()
	cache := newMemCache()
	availability := NewAvailabilityService(repo.Treatment, repo.Booking, cache, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	availability.Invalidate(ctx, jan10)

	gen, err := cache.Version(context.Background(), "availability:gen:2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}
