package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/data/repository/repotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed() *Store {
	return New(
		&entity.TreatmentOption{Name: "Teeth Orthodontics", PriceMinor: 9900, Slots: []string{"9AM", "10AM", "11AM"}},
		&entity.TreatmentOption{Name: "Cleaning", PriceMinor: 5000, Slots: []string{"9AM", "10AM", "11AM"}},
	)
}

func newBooking(email, treatment, slot string, date time.Time) *entity.Booking {
	now := time.Now()
	return &entity.Booking{
		Base:            entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Email:           email,
		Treatment:       treatment,
		AppointmentDate: date,
		Slot:            slot,
	}
}

var day = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func TestLedgerBehaviour(t *testing.T) {
	repotest.Run(t, func(t *testing.T) *repository.Repository {
		return New(repository.DefaultCatalog()...).Repository()
	})
}

func TestTreatmentsOrderedByName(t *testing.T) {
	repo := seed().Repository()

	names, err := repo.Treatment.FindNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cleaning", "Teeth Orthodontics"}, names)
}

func TestRemainingSlots(t *testing.T) {
	ctx := context.Background()
	repo := seed().Repository()

	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", "Cleaning", "10AM", day)))

	remaining, err := repo.Treatment.RemainingSlots(ctx, day)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, []string{"9AM", "11AM"}, remaining[0].Slots)
	assert.Equal(t, []string{"9AM", "10AM", "11AM"}, remaining[1].Slots)

	other, err := repo.Treatment.RemainingSlots(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"9AM", "10AM", "11AM"}, other[0].Slots)
}

func TestInsertIfAbsentRules(t *testing.T) {
	ctx := context.Background()
	repo := seed().Repository()

	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", "Cleaning", "9AM", day)))

	err := repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", "Cleaning", "10AM", day))
	assert.ErrorIs(t, err, repository.ErrPatientAlreadyBooked)

	err = repo.Booking.InsertIfAbsent(ctx, newBooking("b@x.com", "Cleaning", "9AM", day))
	assert.ErrorIs(t, err, repository.ErrSlotTaken)

	// patient rule wins when both would fire
	err = repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", "Cleaning", "9AM", day))
	assert.ErrorIs(t, err, repository.ErrPatientAlreadyBooked)

	// other treatment and other date are independent
	assert.NoError(t, repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", "Teeth Orthodontics", "9AM", day)))
	assert.NoError(t, repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", "Cleaning", "9AM", day.AddDate(0, 0, 1))))

	all, err := repo.Booking.FindActive(ctx, repository.BookingFilter{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestConcurrentAdmissionSameSlot(t *testing.T) {
	ctx := context.Background()
	repo := seed().Repository()

	const n = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		taken     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := uuid.NewString() + "@x.com"
			err := repo.Booking.InsertIfAbsent(ctx, newBooking(email, "Cleaning", "9AM", day))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, repository.ErrSlotTaken):
				taken++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, taken)

	held, err := repo.Booking.FindActive(ctx, repository.BookingFilter{Treatment: "Cleaning", Date: &day})
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestConcurrentAdmissionSamePatient(t *testing.T) {
	ctx := context.Background()
	repo := seed().Repository()
	slots := []string{"9AM", "10AM", "11AM"}

	var wg sync.WaitGroup
	results := make(chan error, len(slots))
	for _, slot := range slots {
		wg.Add(1)
		go func(slot string) {
			defer wg.Done()
			results <- repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", "Cleaning", slot, day))
		}(slot)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrPatientAlreadyBooked)
	}
	assert.Equal(t, 1, successes)
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	store := seed()
	repo := store.Repository()

	b := newBooking("a@x.com", "Cleaning", "9AM", day)
	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, b))

	payment := func(txID string) *entity.Payment {
		return &entity.Payment{
			BaseSimple:    entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
			BookingID:     b.ID,
			Email:         b.Email,
			AmountMinor:   5000,
			Currency:      "usd",
			TransactionID: txID,
		}
	}

	first, err := repo.Payment.Settle(ctx, payment("pi_1"))
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	replay, err := repo.Payment.Settle(ctx, payment("pi_1"))
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.Payment.ID, replay.Payment.ID)

	_, err = repo.Payment.Settle(ctx, payment("pi_2"))
	assert.ErrorIs(t, err, repository.ErrAlreadySettled)
	assert.Equal(t, 1, store.PaymentCount())

	got, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "pi_1", *got.TransactionID)
}

func TestSettleUnknownBooking(t *testing.T) {
	store := seed()
	_, err := store.Repository().Payment.Settle(context.Background(), &entity.Payment{BookingID: uuid.New(), TransactionID: "pi_1"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Zero(t, store.PaymentCount())
}

func TestConcurrentSettleDistinctReferences(t *testing.T) {
	ctx := context.Background()
	store := seed()
	repo := store.Repository()

	b := newBooking("a@x.com", "Cleaning", "9AM", day)
	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, b))

	const n = 20
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Payment.Settle(ctx, &entity.Payment{
				BaseSimple:    entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
				BookingID:     b.ID,
				TransactionID: uuid.NewString(),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrAlreadySettled)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, store.PaymentCount())
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seed().Repository().Treatment.FindAll(ctx)
	assert.ErrorIs(t, err, repository.ErrUnavailable)
}
