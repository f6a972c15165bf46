package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/data/repository/memstore"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/mock"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string) (string, error) {
	args := m.Called(ctx, amountMinor, currency)
	return args.String(0), args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCache) Version(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) Bump(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	args := m.Called(ctx, key, ttl)
	return args.Get(0).(int64), args.Error(1)
}

// memCache is a map-backed Cache. Like a network client it refuses work on a
// cancelled context. TTLs are ignored.
type memCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	counters map[string]int64
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte), counters: make(map[string]int64)}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
	return nil
}

func (c *memCache) Version(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[key], nil
}

func (c *memCache) Bump(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

// interleavedBookings runs hook once, right after the wrapped FindActive has taken
// its snapshot and before the caller sees it.
type interleavedBookings struct {
	repository.BookingRepository
	once sync.Once
	hook func()
}

func (b *interleavedBookings) FindActive(ctx context.Context, filter repository.BookingFilter) ([]*entity.Booking, error) {
	out, err := b.BookingRepository.FindActive(ctx, filter)
	b.once.Do(func() {
		if b.hook != nil {
			b.hook()
		}
	})
	return out, err
}

// downTreatments fails every catalog read with a transient storage error.
type downTreatments struct {
	repository.TreatmentRepository
}

var errConnRefused = errors.New("dial tcp: connection refused")

func (downTreatments) FindByName(ctx context.Context, name string) (*entity.TreatmentOption, error) {
	return nil, repository.Unavailable(errConnRefused)
}

func (downTreatments) FindAll(ctx context.Context) ([]*entity.TreatmentOption, error) {
	return nil, repository.Unavailable(errConnRefused)
}

var jan10 = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func fixtureStore() *memstore.Store {
	return memstore.New(
		&entity.TreatmentOption{Name: "Cleaning", PriceMinor: 5000, Slots: []string{"9AM", "10AM"}},
		&entity.TreatmentOption{Name: "Oral Surgery", PriceMinor: 12000, Slots: []string{"2PM", "3PM", "4PM"}},
		&entity.TreatmentOption{Name: "Cavity Protection", PriceMinor: 9900, Slots: []string{"10AM", "11AM"}},
	)
}
