package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"doctors-portal/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func echoEmail() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, _ := utils.GetEmailFromContext(r.Context())
		w.Write([]byte(email))
	})
}

func TestAuthJWT(t *testing.T) {
	valid, err := utils.GenerateToken(secret, "a@x.com", time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("other-secret", "a@x.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer " + valid, status: http.StatusOK, body: "a@x.com"},
		{name: "lowercase scheme", header: "bearer " + valid, status: http.StatusOK, body: "a@x.com"},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token " + valid, status: http.StatusUnauthorized},
		{name: "bad signature", header: "Bearer " + foreign, status: http.StatusForbidden},
		{name: "garbage", header: "Bearer abc.def.ghi", status: http.StatusForbidden},
	}

	handler := AuthJWT(secret, zap.NewNop())(echoEmail())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAdmin(t *testing.T) {
	checker := func(ctx context.Context, email string) (bool, error) {
		switch email {
		case "admin@x.com":
			return true, nil
		case "down@x.com":
			return false, errors.New("storage unavailable")
		}
		return false, nil
	}
	handler := Admin(checker, zap.NewNop())(echoEmail())

	tests := []struct {
		email  string
		status int
	}{
		{email: "admin@x.com", status: http.StatusOK},
		{email: "a@x.com", status: http.StatusForbidden},
		{email: "down@x.com", status: http.StatusServiceUnavailable},
		{email: "", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		if tt.email != "" {
			req = req.WithContext(utils.SetEmailContext(req.Context(), tt.email))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, tt.email)
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
