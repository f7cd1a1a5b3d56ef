package middlewarectx_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/lib/jwt"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/services/gate"
)

// MockResolver реализует middlewarectx.AccessResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, id models.Identity) models.AccessRecord {
	args := m.Called(ctx, id)
	return args.Get(0).(models.AccessRecord)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestIdentityMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Hour)
	validToken, err := maker.GenerateToken(models.Identity{UserID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)
	guestToken, err := maker.GenerateToken(models.Identity{UserID: "g1", IsGuest: true})
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
		wantIdentity   models.Identity
	}{
		{
			name:           "no header is anonymous",
			authHeader:     "",
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
			wantIdentity:   models.Identity{},
		},
		{
			name:           "invalid header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer garbage",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer " + validToken,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
			wantIdentity:   models.Identity{UserID: "u1", Email: "u1@example.com"},
		},
		{
			name:           "guest token",
			authHeader:     "Bearer " + guestToken,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
			wantIdentity:   models.Identity{UserID: "g1", IsGuest: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			var got models.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got = middlewarectx.IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := middlewarectx.IdentityMiddleware(maker, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/access", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantCalled {
				assert.Equal(t, tt.wantIdentity, got)
			}
		})
	}
}

func TestAccessGate(t *testing.T) {
	id := models.Identity{UserID: "u1"}

	t.Run("access granted", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Resolve", mock.Anything, id).Return(models.FreeLite()).Once()

		var got models.AccessRecord
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, ok := middlewarectx.AccessFromContext(r.Context())
			require.True(t, ok)
			got = rec
			w.WriteHeader(http.StatusOK)
		})
		handler := middlewarectx.AccessGate(newNoopLogger(), resolver)(next)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/features/limits", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.IdentityKey, id))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.AccessFreeLite, got.AccessType)
		resolver.AssertExpectations(t)
	})

	t.Run("access denied", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Resolve", mock.Anything, models.Identity{}).Return(models.NoAccess()).Once()

		called := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
		handler := middlewarectx.AccessGate(newNoopLogger(), resolver)(next)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/features/limits", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)

		var body struct {
			Status string        `json:"status"`
			Error  string        `json:"error"`
			Data   gate.Decision `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "access denied", body.Error)
		assert.Equal(t, gate.PostureDenied, body.Data.Posture)
		assert.Contains(t, body.Data.Offers, gate.OfferStartTrial)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.001, 2)(next)

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/trial/start", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
