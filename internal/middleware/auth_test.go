package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters!!"

func staffToken(t *testing.T, secret string, staffID string, expiry time.Duration) string {
	t.Helper()
	claims := &StaffClaims{
		StaffID: staffID,
		Role:    "lawyer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authedHandler(t *testing.T) (http.Handler, *string) {
	var gotStaffID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetStaffID(r.Context())
		require.True(t, ok)
		gotStaffID = id
		w.WriteHeader(http.StatusOK)
	})
	return RequireStaff(testSecret)(handler), &gotStaffID
}

func TestRequireStaff_ValidToken(t *testing.T) {
	handler, gotStaffID := authedHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken(t, testSecret, "staff-42", time.Hour))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-42", *gotStaffID)
}

func TestRequireStaff_MissingHeader(t *testing.T) {
	handler, _ := authedHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "auth_required")
}

func TestRequireStaff_WrongScheme(t *testing.T) {
	handler, _ := authedHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "auth_invalid_scheme")
}

func TestRequireStaff_WrongSecret(t *testing.T) {
	handler, _ := authedHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken(t, "another-secret-also-32-characters!!!", "staff-42", time.Hour))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireStaff_ExpiredToken(t *testing.T) {
	handler, _ := authedHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken(t, testSecret, "staff-42", -time.Hour))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
