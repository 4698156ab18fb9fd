package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-clinic-management/config"
	"go-clinic-management/internal/domain/entity"
	"go-clinic-management/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWT() *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour})
}

// echoUser reports the acting user the middleware chain stored.
func echoUser(t *testing.T, wantID uint, wantRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := ActingUserID(r.Context())
		require.NotNil(t, userID)
		assert.Equal(t, wantID, *userID)
		role, _ := GetRoleFromContext(r.Context())
		assert.Equal(t, wantRole, role)
		tokenID, ok := GetTokenIDFromContext(r.Context())
		assert.True(t, ok)
		assert.NotEmpty(t, tokenID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate_ValidToken(t *testing.T) {
	jwtService := newJWT()
	token, err := jwtService.GenerateAccessToken(7, entity.RoleAdmin)
	require.NoError(t, err)

	handler := NewAuthMiddleware(jwtService).Authenticate(echoUser(t, 7, entity.RoleAdmin))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthenticate_Rejects(t *testing.T) {
	other := jwt.NewJWTService(config.JWTConfig{Secret: "another-secret", AccessExpiry: time.Hour})
	foreign, err := other.GenerateAccessToken(7, entity.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-token"},
		{"foreign signature", "Bearer " + foreign},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := NewAuthMiddleware(newJWT()).Authenticate(next)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name     string
		role     string
		withRole bool
		guard    func(http.Handler) http.Handler
		want     int
	}{
		{"admin on admin route", entity.RoleAdmin, true, RequireAdmin, http.StatusOK},
		{"doctor on admin route", entity.RoleDoctor, true, RequireAdmin, http.StatusForbidden},
		{"nurse on staff route", entity.RoleNurse, true, RequireStaff, http.StatusOK},
		{"patient on staff route", entity.RolePatient, true, RequireStaff, http.StatusForbidden},
		{"patient on patient route", entity.RolePatient, true, RequirePatient, http.StatusOK},
		{"no role", "", false, RequireStaff, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.withRole {
				req = req.WithContext(WithUser(req.Context(), 1, tt.role))
			}
			rec := httptest.NewRecorder()
			tt.guard(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler := NewCORSMiddleware("https://clinic.example").Handle(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called, "preflight stops at the middleware")
	assert.Equal(t, "https://clinic.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	NewCORSMiddleware("").Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	log, hook := test.NewNullLogger()
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	})
	handler := NewRequestMiddleware(log).Handle(next)

	supplied := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, supplied)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, supplied, seen)
	assert.Equal(t, supplied, rec.Header().Get(RequestIDHeader))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, http.StatusInternalServerError, hook.LastEntry().Data["status"])

	// an id that is not a uuid gets replaced
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}
