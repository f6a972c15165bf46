// Package repotest checks the ledger behaviour every storage backend must share:
// atomic admission, settle-once payments, and remaining slots that agree with the
// in-process computation.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns repositories over an empty ledger seeded with repository.DefaultCatalog.
type Factory func(t *testing.T) *repository.Repository

const (
	orthodontics = "Teeth Orthodontics"
	cleaning     = "Teeth Cleaning"
	surgery      = "Oral Surgery"

	workers = 16
)

var day = time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)

// Run executes every ledger check against a fresh repository from newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("AdmissionRules", func(t *testing.T) { admissionRules(t, newRepo(t)) })
	t.Run("ConcurrentAdmissionSameSlot", func(t *testing.T) { concurrentSameSlot(t, newRepo(t)) })
	t.Run("ConcurrentAdmissionSamePatient", func(t *testing.T) { concurrentSamePatient(t, newRepo(t)) })
	t.Run("LongSlotLabel", func(t *testing.T) { longSlotLabel(t, newRepo(t)) })
	t.Run("UpdatePaidStatus", func(t *testing.T) { updatePaidStatus(t, newRepo(t)) })
	t.Run("SettleReplayAndMismatch", func(t *testing.T) { settleReplayAndMismatch(t, newRepo(t)) })
	t.Run("SettleUnknownBooking", func(t *testing.T) { settleUnknownBooking(t, newRepo(t)) })
	t.Run("ConcurrentSettle", func(t *testing.T) { concurrentSettle(t, newRepo(t)) })
	t.Run("RemainingSlotsMatchComputed", func(t *testing.T) { remainingSlotsMatchComputed(t, newRepo(t)) })
}

func newBooking(email, treatment, slot string, date time.Time) *entity.Booking {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &entity.Booking{
		Base:            entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Email:           email,
		Treatment:       treatment,
		AppointmentDate: date,
		Slot:            slot,
	}
}

func newPayment(b *entity.Booking, txID string) *entity.Payment {
	return &entity.Payment{
		BaseSimple:    entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now().UTC().Truncate(time.Millisecond)},
		BookingID:     b.ID,
		Email:         b.Email,
		AmountMinor:   9900,
		Currency:      "usd",
		TransactionID: txID,
	}
}

func templateSlots(t *testing.T, repo *repository.Repository, treatment string) []string {
	t.Helper()
	option, err := repo.Treatment.FindByName(context.Background(), treatment)
	require.NoError(t, err)
	require.NotNil(t, option, treatment)
	return option.Slots
}

func admissionRules(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	slots := templateSlots(t, repo, cleaning)

	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", cleaning, slots[0], day)))

	// The patient rule is reported even when the slot is taken too.
	err := repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", cleaning, slots[0], day))
	assert.ErrorIs(t, err, repository.ErrPatientAlreadyBooked)

	err = repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", cleaning, slots[1], day))
	assert.ErrorIs(t, err, repository.ErrPatientAlreadyBooked)

	err = repo.Booking.InsertIfAbsent(ctx, newBooking("b@x.com", cleaning, slots[0], day))
	assert.ErrorIs(t, err, repository.ErrSlotTaken)

	assert.NoError(t, repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", cleaning, slots[0], day.AddDate(0, 0, 1))))
	assert.NoError(t, repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", orthodontics, slots[0], day)))

	active, err := repo.Booking.FindActive(ctx, repository.BookingFilter{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

// collect runs fn on workers goroutines released together and returns their errors.
func collect(n int, fn func(i int) error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func countOutcomes(t *testing.T, errs []error, expected error) (wins, losses int) {
	t.Helper()
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, expected):
			losses++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	return wins, losses
}

func concurrentSameSlot(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	slot := templateSlots(t, repo, surgery)[0]

	errs := collect(workers, func(i int) error {
		return repo.Booking.InsertIfAbsent(ctx, newBooking(fmt.Sprintf("p%d@x.com", i), surgery, slot, day))
	})

	wins, losses := countOutcomes(t, errs, repository.ErrSlotTaken)
	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, losses)

	active, err := repo.Booking.FindActive(ctx, repository.BookingFilter{Treatment: surgery, Date: &day})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func concurrentSamePatient(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	slots := templateSlots(t, repo, orthodontics)

	errs := collect(len(slots), func(i int) error {
		return repo.Booking.InsertIfAbsent(ctx, newBooking("same@x.com", orthodontics, slots[i], day))
	})

	wins, losses := countOutcomes(t, errs, repository.ErrPatientAlreadyBooked)
	assert.Equal(t, 1, wins)
	assert.Equal(t, len(slots)-1, losses)
}

func longSlotLabel(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	label := strings.Repeat("x", 80)

	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, newBooking("a@x.com", cleaning, label, day)))

	active, err := repo.Booking.FindActive(ctx, repository.BookingFilter{Email: "a@x.com"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, label, active[0].Slot)
}

func updatePaidStatus(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	b := newBooking("a@x.com", cleaning, templateSlots(t, repo, cleaning)[0], day)
	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, b))

	require.NoError(t, repo.Booking.UpdatePaidStatus(ctx, b.ID, "pi_1"))
	require.NoError(t, repo.Booking.UpdatePaidStatus(ctx, b.ID, "pi_1"))
	assert.ErrorIs(t, repo.Booking.UpdatePaidStatus(ctx, b.ID, "pi_2"), repository.ErrAlreadySettled)
	assert.ErrorIs(t, repo.Booking.UpdatePaidStatus(ctx, uuid.New(), "pi_1"), repository.ErrNotFound)
}

func settleReplayAndMismatch(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	b := newBooking("a@x.com", cleaning, templateSlots(t, repo, cleaning)[0], day)
	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, b))

	first, err := repo.Payment.Settle(ctx, newPayment(b, "pi_1"))
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	replay, err := repo.Payment.Settle(ctx, newPayment(b, "pi_1"))
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.Payment.ID, replay.Payment.ID)

	_, err = repo.Payment.Settle(ctx, newPayment(b, "pi_2"))
	assert.ErrorIs(t, err, repository.ErrAlreadySettled)

	stored, err := repo.Payment.FindByBookingID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.Payment.ID, stored.ID)
	assert.Equal(t, "pi_1", stored.TransactionID)

	got, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Paid)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "pi_1", *got.TransactionID)
}

func settleUnknownBooking(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	ghost := newBooking("a@x.com", cleaning, "none", day)

	_, err := repo.Payment.Settle(ctx, newPayment(ghost, "pi_1"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := repo.Payment.FindByBookingID(ctx, ghost.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func concurrentSettle(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	b := newBooking("a@x.com", cleaning, templateSlots(t, repo, cleaning)[0], day)
	require.NoError(t, repo.Booking.InsertIfAbsent(ctx, b))

	errs := collect(workers, func(i int) error {
		_, err := repo.Payment.Settle(ctx, newPayment(b, fmt.Sprintf("pi_%d", i)))
		return err
	})

	wins, losses := countOutcomes(t, errs, repository.ErrAlreadySettled)
	require.Equal(t, 1, wins)
	assert.Equal(t, workers-1, losses)

	winner := ""
	for i, err := range errs {
		if err == nil {
			winner = fmt.Sprintf("pi_%d", i)
		}
	}

	stored, err := repo.Payment.FindByBookingID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, winner, stored.TransactionID)

	got, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, winner, *got.TransactionID)
}

type availability struct {
	Name  string
	Slots []string
}

func summarize(options []*entity.TreatmentOption) []availability {
	out := make([]availability, len(options))
	for i, o := range options {
		out[i] = availability{Name: o.Name, Slots: o.Slots}
	}
	return out
}

func remainingSlotsMatchComputed(t *testing.T, repo *repository.Repository) {
	ctx := context.Background()
	morning := templateSlots(t, repo, orthodontics)
	afternoon := templateSlots(t, repo, surgery)

	fixtures := []*entity.Booking{
		newBooking("a@x.com", orthodontics, morning[1], day),
		newBooking("b@x.com", orthodontics, morning[4], day),
		newBooking("c@x.com", surgery, afternoon[0], day),
		newBooking("d@x.com", surgery, afternoon[len(afternoon)-1], day),
		newBooking("e@x.com", cleaning, morning[0], day.AddDate(0, 0, 1)),
	}
	for _, b := range fixtures {
		require.NoError(t, repo.Booking.InsertIfAbsent(ctx, b))
	}

	catalog, err := repo.Treatment.FindAll(ctx)
	require.NoError(t, err)

	for _, date := range []time.Time{day.AddDate(0, 0, -1), day, day.AddDate(0, 0, 1)} {
		booked, err := repo.Booking.FindActive(ctx, repository.BookingFilter{Date: &date})
		require.NoError(t, err)

		aggregated, err := repo.Treatment.RemainingSlots(ctx, date)
		require.NoError(t, err)

		want := summarize(usecase.ComputeAvailability(date, catalog, booked))
		assert.Equal(t, want, summarize(aggregated), date.Format("2006-01-02"))
	}

	aggregated, err := repo.Treatment.RemainingSlots(ctx, day)
	require.NoError(t, err)
	for _, o := range aggregated {
		if o.Name == orthodontics {
			assert.Equal(t, []string{morning[0], morning[2], morning[3], morning[5], morning[6], morning[7]}, o.Slots)
		}
	}
}
