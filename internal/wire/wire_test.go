package wire

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/data/repository/memstore"
	"doctors-portal/internal/dto/response"
	"doctors-portal/internal/usecase"
	"doctors-portal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testApp struct {
	t      *testing.T
	router http.Handler
	repo   *repository.Repository
	config *utils.Config
}

func testConfig() *utils.Config {
	return &utils.Config{
		JWT:       utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		Payment:   utils.PaymentConfig{Currency: "usd"},
		RateLimit: utils.RateLimitConfig{BookingsPerMinute: 1000},
	}
}

func newTestApp(t *testing.T, repo *repository.Repository) *testApp {
	t.Helper()
	config := testConfig()
	app := Wiring(repo, usecase.Deps{}, config, zap.NewNop())
	return &testApp{t: t, router: app.Router, repo: repo, config: config}
}

func newMemApp(t *testing.T) *testApp {
	store := memstore.New(&entity.TreatmentOption{Name: "Cleaning", PriceMinor: 5000, Slots: []string{"9AM", "10AM"}})
	return newTestApp(t, store.Repository())
}

func (a *testApp) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

// login registers email and returns an access token for it.
func (a *testApp) login(email string) string {
	a.t.Helper()

	code, _ := a.do(http.MethodPost, "/api/users", "", map[string]string{"name": "Patient", "email": email})
	require.Contains(a.t, []int{http.StatusCreated, http.StatusOK}, code)

	code, env := a.do(http.MethodGet, "/api/jwt?email="+email, "", nil)
	require.Equal(a.t, http.StatusOK, code)

	var token response.TokenResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &token))
	return token.AccessToken
}

func (a *testApp) slots(path string) []string {
	a.t.Helper()
	code, env := a.do(http.MethodGet, path, "", nil)
	require.Equal(a.t, http.StatusOK, code)

	var options []response.TreatmentAvailabilityResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &options))
	require.Len(a.t, options, 1)
	return options[0].Slots
}

func TestHealth(t *testing.T) {
	code, env := newMemApp(t).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Status)
}

func TestBookingFlow(t *testing.T) {
	app := newMemApp(t)
	alice := app.login("a@x.com")
	bob := app.login("b@x.com")

	assert.Equal(t, []string{"9AM", "10AM"}, app.slots("/api/appointment-options?date=2024-01-10"))

	code, _ := app.do(http.MethodPost, "/api/bookings", "", map[string]string{"treatment": "Cleaning", "appointment_date": "2024-01-10", "slot": "9AM"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := app.do(http.MethodPost, "/api/bookings", alice, map[string]string{"treatment": "Cleaning", "appointment_date": "2024-01-10", "slot": "9AM"})
	require.Equal(t, http.StatusCreated, code, env.Message)

	var booking response.BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &booking))
	assert.Equal(t, "a@x.com", booking.Email)

	assert.Equal(t, []string{"10AM"}, app.slots("/api/appointment-options?date=2024-01-10"))
	assert.Equal(t, []string{"10AM"}, app.slots("/api/v2/appointment-options?date=2024-01-10"))

	code, env = app.do(http.MethodPost, "/api/bookings", alice, map[string]string{"treatment": "Cleaning", "appointment_date": "2024-01-10", "slot": "10AM"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(usecase.DuplicatePatientBooking), env.Errors["kind"])
	assert.Equal(t, "2024-01-10", env.Errors["appointment_date"])

	code, env = app.do(http.MethodPost, "/api/bookings", bob, map[string]string{"treatment": "Cleaning", "appointment_date": "2024-01-10", "slot": "9AM"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(usecase.SlotAlreadyTaken), env.Errors["kind"])

	code, env = app.do(http.MethodPost, "/api/bookings", bob, map[string]string{"treatment": "Whitening", "appointment_date": "2024-01-10", "slot": "9AM"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "treatment")

	code, env = app.do(http.MethodGet, "/api/bookings?email=a@x.com", alice, nil)
	assert.Equal(t, http.StatusOK, code)
	var mine []response.BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Len(t, mine, 1)

	code, _ = app.do(http.MethodGet, "/api/bookings?email=a@x.com", bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(http.MethodGet, "/api/bookings/"+booking.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(http.MethodGet, "/api/bookings/"+uuid.NewString(), alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPaymentFlow(t *testing.T) {
	app := newMemApp(t)
	alice := app.login("a@x.com")

	code, env := app.do(http.MethodPost, "/api/bookings", alice, map[string]string{"treatment": "Cleaning", "appointment_date": "2024-01-10", "slot": "9AM"})
	require.Equal(t, http.StatusCreated, code)
	var booking response.BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &booking))

	pay := func(txID string, amount int64) (int, envelope) {
		return app.do(http.MethodPost, "/api/payments", alice, map[string]any{
			"booking_id":     booking.ID,
			"amount_minor":   amount,
			"transaction_id": txID,
		})
	}

	code, _ = app.do(http.MethodPost, "/api/create-payment-intent", alice, map[string]string{"booking_id": booking.ID})
	assert.Equal(t, http.StatusBadGateway, code, "no provider configured")

	code, env = pay("pi_1", 100)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "amount_minor")

	code, _ = pay("pi_1", 5000)
	assert.Equal(t, http.StatusCreated, code)

	code, env = pay("pi_1", 5000)
	assert.Equal(t, http.StatusOK, code)
	var replay response.PaymentResponse
	require.NoError(t, json.Unmarshal(env.Data, &replay))
	assert.True(t, replay.Replayed)

	code, env = pay("pi_2", 5000)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "pi_1", env.Errors["transaction_id"])

	code, env = app.do(http.MethodGet, "/api/bookings/"+booking.ID, alice, nil)
	require.Equal(t, http.StatusOK, code)
	var settled response.BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &settled))
	assert.True(t, settled.Paid)
}

func TestAdminRoutes(t *testing.T) {
	store := memstore.New()
	app := newTestApp(t, store.Repository())
	patient := app.login("p@x.com")
	admin := app.login("admin@x.com")

	code, _ := app.do(http.MethodGet, "/api/doctors", patient, nil)
	assert.Equal(t, http.StatusForbidden, code)

	u, err := app.repo.User.FindByEmail(context.Background(), "admin@x.com")
	require.NoError(t, err)
	require.NoError(t, app.repo.User.UpdateRole(context.Background(), u.ID, entity.RoleAdmin))

	code, env := app.do(http.MethodGet, "/api/users/admin/admin@x.com", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"is_admin":true}`, string(env.Data))

	code, env = app.do(http.MethodPost, "/api/doctors", admin, map[string]string{"name": "Dr. Who", "email": "who@x.com", "specialty": "Oral Surgery"})
	require.Equal(t, http.StatusCreated, code)
	var doctor response.DoctorResponse
	require.NoError(t, json.Unmarshal(env.Data, &doctor))

	code, _ = app.do(http.MethodDelete, "/api/doctors/"+doctor.ID, admin, nil)
	assert.Equal(t, http.StatusOK, code)

	p, err := app.repo.User.FindByEmail(context.Background(), "p@x.com")
	require.NoError(t, err)
	code, _ = app.do(http.MethodPut, "/api/users/admin/"+p.ID.String(), admin, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = app.do(http.MethodGet, "/api/users", patient, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestTokenForUnregisteredEmail(t *testing.T) {
	code, _ := newMemApp(t).do(http.MethodGet, "/api/jwt?email=nobody@x.com", "", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

type downCatalog struct {
	repository.TreatmentRepository
}

func (downCatalog) FindAll(ctx context.Context) ([]*entity.TreatmentOption, error) {
	return nil, repository.Unavailable(context.DeadlineExceeded)
}

func (downCatalog) RemainingSlots(ctx context.Context, date time.Time) ([]*entity.TreatmentOption, error) {
	return nil, repository.Unavailable(context.DeadlineExceeded)
}

func TestStorageUnavailable(t *testing.T) {
	repo := memstore.New().Repository()
	repo.Treatment = downCatalog{repo.Treatment}
	app := newTestApp(t, repo)

	code, _ := app.do(http.MethodGet, "/api/appointment-options?date=2024-01-10", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = app.do(http.MethodGet, "/api/v2/appointment-options?date=2024-01-10", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
