package create

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// MockService реализует интерфейс create.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateCheckoutSession(ctx context.Context, planID string, id models.Identity) (string, bool) {
	args := m.Called(ctx, planID, id)
	return args.String(0), args.Bool(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := models.Identity{UserID: "u1", Email: "u1@example.com"}

	tests := []struct {
		name           string
		identity       models.Identity
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "сессия создана",
			identity: user,
			body:     `{"plan_id":"professional"}`,
			setupMock: func(m *MockService) {
				m.On("CreateCheckoutSession", mock.Anything, "professional", user).
					Return("https://pay.example.com/s/1", true).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"url":"https://pay.example.com/s/1"}}`,
		},
		{
			name:     "сеть недоступна",
			identity: user,
			body:     `{"plan_id":"professional"}`,
			setupMock: func(m *MockService) {
				m.On("CreateCheckoutSession", mock.Anything, "professional", user).Return("", false).Once()
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"status":"Error","error":"could not start checkout"}`,
		},
		{
			name:           "аноним",
			identity:       models.Identity{},
			body:           `{"plan_id":"professional"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:           "некорректный JSON",
			identity:       user,
			body:           `plan`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "план с недопустимыми символами",
			identity:       user,
			body:           `{"plan_id":"pro plan"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field PlanID can contain only numbers and letters`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.IdentityKey, tt.identity))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
