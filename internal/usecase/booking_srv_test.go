package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBookingFixture(publisher EventPublisher) (BookingService, *repository.Repository) {
	repo := fixtureStore().Repository()
	log := zap.NewNop()
	availability := NewAvailabilityService(repo.Treatment, repo.Booking, nil, 0, log)
	return NewBookingService(repo.Treatment, repo.Booking, availability, publisher, log), repo
}

func cleaning(slot string) *request.SubmitBookingRequest {
	return &request.SubmitBookingRequest{Treatment: "Cleaning", AppointmentDate: "2024-01-10", Slot: slot}
}

func TestSubmitBookingSuccess(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, EventBookingAdmitted, mock.MatchedBy(func(e BookingAdmittedEvent) bool {
		return e.Email == "a@x.com" && e.Slot == "9AM" && e.AppointmentDate == "2024-01-10"
	})).Return(nil).Once()

	svc, repo := newBookingFixture(publisher)

	got, err := svc.SubmitBooking(context.Background(), "a@x.com", cleaning("9AM"))
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "2024-01-10", got.AppointmentDate)
	assert.False(t, got.Paid)
	assert.Nil(t, got.TransactionID)

	stored, err := repo.Booking.FindByID(context.Background(), uuid.MustParse(got.ID))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "9AM", stored.Slot)

	publisher.AssertExpectations(t)
}

func TestSubmitBookingValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   *request.SubmitBookingRequest
		field string
	}{
		{name: "unknown treatment", req: &request.SubmitBookingRequest{Treatment: "Whitening", AppointmentDate: "2024-01-10", Slot: "9AM"}, field: "treatment"},
		{name: "slot outside template", req: cleaning("3PM"), field: "slot"},
		{name: "missing fields", req: &request.SubmitBookingRequest{}},
		{name: "bad date", req: &request.SubmitBookingRequest{Treatment: "Cleaning", AppointmentDate: "2024/01/10", Slot: "9AM"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newBookingFixture(nil)

			_, err := svc.SubmitBooking(context.Background(), "a@x.com", tt.req)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			if tt.field != "" {
				assert.Equal(t, tt.field, validationErr.Field)
			}

			all, err := repo.Booking.FindActive(context.Background(), repository.BookingFilter{})
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestSubmitBookingDuplicatePatient(t *testing.T) {
	svc, _ := newBookingFixture(nil)
	ctx := context.Background()

	_, err := svc.SubmitBooking(ctx, "a@x.com", cleaning("9AM"))
	require.NoError(t, err)

	_, err = svc.SubmitBooking(ctx, "a@x.com", cleaning("10AM"))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, DuplicatePatientBooking, conflict.Kind)
	assert.Equal(t, jan10, conflict.Date)
	assert.Contains(t, err.Error(), "2024-01-10")
}

func TestSubmitBookingSlotTaken(t *testing.T) {
	svc, _ := newBookingFixture(nil)
	ctx := context.Background()

	_, err := svc.SubmitBooking(ctx, "a@x.com", cleaning("9AM"))
	require.NoError(t, err)

	_, err = svc.SubmitBooking(ctx, "b@x.com", cleaning("9AM"))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, SlotAlreadyTaken, conflict.Kind)
	assert.Equal(t, "9AM", conflict.Slot)
}

func TestSubmitBookingConcurrentSameSlot(t *testing.T) {
	svc, repo := newBookingFixture(nil)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitBooking(ctx, uuid.NewString()+"@x.com", cleaning("10AM"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, taken := 0, 0
	for err := range results {
		var conflict *ConflictError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &conflict) && conflict.Kind == SlotAlreadyTaken:
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, taken)

	all, err := repo.Booking.FindActive(ctx, repository.BookingFilter{Treatment: "Cleaning"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubmitBookingStorageUnavailable(t *testing.T) {
	repo := fixtureStore().Repository()
	log := zap.NewNop()
	availability := NewAvailabilityService(repo.Treatment, repo.Booking, nil, 0, log)
	svc := NewBookingService(downTreatments{repo.Treatment}, repo.Booking, availability, nil, log)

	_, err := svc.SubmitBooking(context.Background(), "a@x.com", cleaning("9AM"))
	var unavailable *StorageUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestSubmitBookingPublishFailureIsNotFatal(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, EventBookingAdmitted, mock.Anything).Return(errors.New("broker down"))

	svc, _ := newBookingFixture(publisher)
	_, err := svc.SubmitBooking(context.Background(), "a@x.com", cleaning("9AM"))
	assert.NoError(t, err)
}

func TestGetBookings(t *testing.T) {
	svc, _ := newBookingFixture(nil)
	ctx := context.Background()

	created, err := svc.SubmitBooking(ctx, "a@x.com", cleaning("9AM"))
	require.NoError(t, err)
	_, err = svc.SubmitBooking(ctx, "b@x.com", cleaning("10AM"))
	require.NoError(t, err)

	mine, err := svc.GetUserBookings(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	got, err := svc.GetBookingByID(ctx, "a@x.com", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "9AM", got.Slot)

	_, err = svc.GetBookingByID(ctx, "b@x.com", created.ID)
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = svc.GetBookingByID(ctx, "a@x.com", uuid.NewString())
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
