// Package memstore is an in-process implementation of the repository contracts.
// A single mutex is the serialized critical section for admission and settlement.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"

	"github.com/google/uuid"
)

type slotKey struct {
	treatment string
	date      string
	slot      string
}

type patientKey struct {
	treatment string
	date      string
	email     string
}

type Store struct {
	mu sync.RWMutex

	treatments map[string]*entity.TreatmentOption
	bookings   []*entity.Booking
	byID       map[uuid.UUID]*entity.Booking
	slots      map[slotKey]uuid.UUID
	patients   map[patientKey]uuid.UUID
	payments   map[uuid.UUID]*entity.Payment // keyed by booking id
	users      map[uuid.UUID]*entity.User
	doctors    []*entity.Doctor
}

func New(treatments ...*entity.TreatmentOption) *Store {
	s := &Store{
		treatments: make(map[string]*entity.TreatmentOption),
		byID:       make(map[uuid.UUID]*entity.Booking),
		slots:      make(map[slotKey]uuid.UUID),
		patients:   make(map[patientKey]uuid.UUID),
		payments:   make(map[uuid.UUID]*entity.Payment),
		users:      make(map[uuid.UUID]*entity.User),
	}
	for _, t := range treatments {
		s.treatments[t.Name] = cloneTreatment(t)
	}
	return s
}

// Repository exposes the store through the repository contracts.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Treatment: treatmentStore{s},
		Booking:   bookingStore{s},
		Payment:   paymentStore{s},
		User:      userStore{s},
		Doctor:    doctorStore{s},
	}
}

// PaymentCount is the number of recorded payments.
func (s *Store) PaymentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *Store) sortedTreatments() []*entity.TreatmentOption {
	out := make([]*entity.TreatmentOption, 0, len(s.treatments))
	for _, t := range s.treatments {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ---- treatments ----

type treatmentStore struct{ s *Store }

func (r treatmentStore) FindAll(ctx context.Context) ([]*entity.TreatmentOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.Unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sorted := r.s.sortedTreatments()
	out := make([]*entity.TreatmentOption, len(sorted))
	for i, t := range sorted {
		out[i] = cloneTreatment(t)
	}
	return out, nil
}

func (r treatmentStore) FindByName(ctx context.Context, name string) (*entity.TreatmentOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.Unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.treatments[name]
	if !ok {
		return nil, nil
	}
	return cloneTreatment(t), nil
}

func (r treatmentStore) FindNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.Unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sorted := r.s.sortedTreatments()
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.Name
	}
	return names, nil
}

// RemainingSlots looks each slot up in the slot index instead of scanning bookings.
func (r treatmentStore) RemainingSlots(ctx context.Context, date time.Time) ([]*entity.TreatmentOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.Unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	day := dateKey(date)
	sorted := r.s.sortedTreatments()
	out := make([]*entity.TreatmentOption, len(sorted))
	for i, t := range sorted {
		c := cloneTreatment(t)
		c.Slots = make([]string, 0, len(t.Slots))
		for _, slot := range t.Slots {
			if _, taken := r.s.slots[slotKey{t.Name, day, slot}]; !taken {
				c.Slots = append(c.Slots, slot)
			}
		}
		out[i] = c
	}
	return out, nil
}

// ---- bookings ----

type bookingStore struct{ s *Store }

func (r bookingStore) InsertIfAbsent(ctx context.Context, booking *entity.Booking) error {
	if err := ctx.Err(); err != nil {
		return repository.Unavailable(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	day := dateKey(booking.AppointmentDate)
	pk := patientKey{booking.Treatment, day, booking.Email}
	sk := slotKey{booking.Treatment, day, booking.Slot}

	if _, ok := r.s.patients[pk]; ok {
		return repository.ErrPatientAlreadyBooked
	}
	if _, ok := r.s.slots[sk]; ok {
		return repository.ErrSlotTaken
	}

	stored := cloneBooking(booking)
	r.s.patients[pk] = stored.ID
	r.s.slots[sk] = stored.ID
	r.s.byID[stored.ID] = stored
	r.s.bookings = append(r.s.bookings, stored)
	return nil
}

func (r bookingStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.Unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneBooking(b), nil
}

func (r bookingStore) FindActive(ctx context.Context, filter repository.BookingFilter) ([]*entity.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.Unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Booking, 0)
	for _, b := range r.s.bookings {
		if filter.Email != "" && b.Email != filter.Email {
			continue
		}
		if filter.Treatment != "" && b.Treatment != filter.Treatment {
			continue
		}
		if filter.Date != nil && dateKey(b.AppointmentDate) != dateKey(*filter.Date) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	return out, nil
}

func (r bookingStore) UpdatePaidStatus(ctx context.Context, id uuid.UUID, transactionID string) error {
	if err := ctx.Err(); err != nil {
		return repository.Unavailable(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.markPaid(id, transactionID, time.Now())
}

func (s *Store) markPaid(id uuid.UUID, transactionID string, now time.Time) error {
	b, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Paid {
		if b.SettledWith(transactionID) {
			return nil
		}
		return repository.ErrAlreadySettled
	}
	ref := transactionID
	b.Paid = true
	b.TransactionID = &ref
	b.UpdatedAt = now
	return nil
}

// ---- payments ----

type paymentStore struct{ s *Store }

func (r paymentStore) Settle(ctx context.Context, payment *entity.Payment) (*repository.SettleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.Unavailable(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.byID[payment.BookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if b.Paid {
		if !b.SettledWith(payment.TransactionID) {
			return nil, repository.ErrAlreadySettled
		}
		p, ok := r.s.payments[b.ID]
		if !ok {
			return nil, repository.ErrAlreadySettled
		}
		existing := *p
		return &repository.SettleResult{Payment: &existing, Replayed: true}, nil
	}

	if err := r.s.markPaid(b.ID, payment.TransactionID, payment.CreatedAt); err != nil {
		return nil, err
	}
	stored := *payment
	r.s.payments[b.ID] = &stored

	out := stored
	return &repository.SettleResult{Payment: &out}, nil
}

func (r paymentStore) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.Unavailable(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.payments[bookingID]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

// ---- users ----

type userStore struct{ s *Store }

func (r userStore) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r userStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r userStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (r userStore) FindAll(ctx context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r userStore) UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return nil
}

// ---- doctors ----

type doctorStore struct{ s *Store }

func (r doctorStore) Create(ctx context.Context, doctor *entity.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *doctor
	r.s.doctors = append(r.s.doctors, &stored)
	return nil
}

func (r doctorStore) FindAll(ctx context.Context) ([]*entity.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Doctor, len(r.s.doctors))
	for i, d := range r.s.doctors {
		c := *d
		out[i] = &c
	}
	return out, nil
}

func (r doctorStore) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, d := range r.s.doctors {
		if d.ID == id {
			r.s.doctors = append(r.s.doctors[:i], r.s.doctors[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func cloneTreatment(t *entity.TreatmentOption) *entity.TreatmentOption {
	c := *t
	c.Slots = append([]string(nil), t.Slots...)
	return &c
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	c := *b
	if b.TransactionID != nil {
		ref := *b.TransactionID
		c.TransactionID = &ref
	}
	return &c
}
