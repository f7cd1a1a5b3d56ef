package entitlement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlements/internal/authority"
	"github.com/magabrotheeeer/entitlements/internal/cache"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/rabbitmq"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event rabbitmq.Event) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

var testURLs = CheckoutURLs{Success: "https://app/ok", Cancel: "https://app/cancel"}

func newServiceFixture(t *testing.T) (*Service, *fixture, *MockPublisher) {
	t.Helper()
	f := newFixture(t)
	pub := new(MockPublisher)
	svc := NewService(f.authority, f.resolver, f.store, testURLs, newNoopLogger(), WithPublisher(pub))
	return svc, f, pub
}

var user = models.Identity{UserID: "u1", Email: "u1@example.com"}

func TestRedeemBetaCode_SuccessRefreshesAccess(t *testing.T) {
	svc, f, pub := newServiceFixture(t)
	member := 101

	f.authority.On("RedeemBetaCode", mock.Anything, authority.RedeemBetaCodeRequest{
		Code: "BETA-XXXX", UserID: "u1", Email: "u1@example.com",
	}).Return(&authority.RedeemBetaCodeResponse{Success: true, Message: "Welcome aboard"}, nil).Once()
	f.authority.On("GetAccess", mock.Anything, "u1").Return(&models.AccessRecord{
		HasAccess: true, AccessType: models.AccessBeta, MemberNumber: &member,
	}, nil).Once()
	pub.On("Publish", mock.Anything, rabbitmq.RoutingBetaRedeemed, mock.MatchedBy(func(ev rabbitmq.Event) bool {
		return ev.UserID == "u1" && ev.AccessType == models.AccessBeta && ev.Operation == OpRedeemBetaCode
	})).Return(nil).Once()

	res := svc.RedeemBetaCode(context.Background(), "  BETA-XXXX ", user)

	assert.True(t, res.Success)
	assert.Equal(t, "Welcome aboard", res.Message)
	require.NotNil(t, res.Access)
	assert.Equal(t, models.AccessBeta, res.Access.AccessType)
	require.NotNil(t, res.Access.MemberNumber)
	assert.Equal(t, 101, *res.Access.MemberNumber)

	cached, ok := f.cached(t, "u1")
	require.True(t, ok)
	assert.Equal(t, models.AccessBeta, cached.AccessType)

	f.authority.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRedeemBetaCode_InFlightResolutionDoesNotOverwriteCache(t *testing.T) {
	svc, f, pub := newServiceFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	stale := models.ReverseTrial(14)

	f.authority.On("GetAccess", mock.Anything, "u1").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&stale, nil).Once()
	f.authority.On("RedeemBetaCode", mock.Anything, mock.Anything).
		Return(&authority.RedeemBetaCodeResponse{Success: true}, nil).Once()
	f.authority.On("GetAccess", mock.Anything, "u1").
		Return(&models.AccessRecord{HasAccess: true, AccessType: models.AccessBeta}, nil).Once()
	f.authority.On("GetAccess", mock.Anything, "u1").Return(nil, errUnreachable).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	before := make(chan models.AccessRecord, 1)
	go func() {
		before <- f.resolver.Resolve(context.Background(), user)
	}()
	<-started

	res := svc.RedeemBetaCode(context.Background(), "BETA-1", user)
	require.True(t, res.Success)
	require.NotNil(t, res.Access)
	assert.Equal(t, models.AccessBeta, res.Access.AccessType)

	close(release)
	select {
	case rec := <-before:
		assert.Equal(t, models.AccessReverseTrial, rec.AccessType)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight resolution did not finish")
	}

	cached, ok := f.cached(t, "u1")
	require.True(t, ok)
	assert.Equal(t, models.AccessBeta, cached.AccessType)

	rec := f.resolver.Resolve(context.Background(), user)
	assert.Equal(t, models.AccessBeta, rec.AccessType)
	assert.Equal(t, models.ProvenanceCache, rec.Provenance)
	f.authority.AssertExpectations(t)
}

func TestRedeemBetaCode_Failures(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		id        models.Identity
		setupMock func(*MockAuthority)
		wantMsg   string
	}{
		{
			name:    "пользователь не вошёл",
			code:    "BETA-1",
			id:      models.Identity{},
			wantMsg: msgSignInNeeded,
		},
		{
			name:    "пустой код",
			code:    "   ",
			id:      user,
			wantMsg: msgCodeRequired,
		},
		{
			name: "сервис отклонил код",
			code: "BETA-1",
			id:   user,
			setupMock: func(m *MockAuthority) {
				m.On("RedeemBetaCode", mock.Anything, mock.Anything).Return(nil,
					fmt.Errorf("authority.RedeemBetaCode: %w", &authority.RejectedError{StatusCode: 400, Message: "Code already used"})).Once()
			},
			wantMsg: "Code already used",
		},
		{
			name: "успешный ответ с success=false",
			code: "BETA-1",
			id:   user,
			setupMock: func(m *MockAuthority) {
				m.On("RedeemBetaCode", mock.Anything, mock.Anything).
					Return(&authority.RedeemBetaCodeResponse{Success: false, Message: "Invalid code"}, nil).Once()
			},
			wantMsg: "Invalid code",
		},
		{
			name: "сервис недоступен",
			code: "BETA-1",
			id:   user,
			setupMock: func(m *MockAuthority) {
				m.On("RedeemBetaCode", mock.Anything, mock.Anything).Return(nil, errUnreachable).Once()
			},
			wantMsg: msgUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, f, pub := newServiceFixture(t)
			if tt.setupMock != nil {
				tt.setupMock(f.authority)
			}

			res := svc.RedeemBetaCode(context.Background(), tt.code, tt.id)

			assert.False(t, res.Success)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Nil(t, res.Access)
			assert.Equal(t, 0, f.store.Len(), "failed mutation must not touch local state")
			f.authority.AssertNotCalled(t, "GetAccess", mock.Anything, mock.Anything)
			pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestStartTrial_Success(t *testing.T) {
	svc, f, pub := newServiceFixture(t)
	days := 7
	plan := "professional"

	f.authority.On("StartTrial", mock.Anything, authority.StartTrialRequest{UserID: "u1"}).
		Return(&authority.StartTrialResponse{Success: true, DaysRemaining: &days}, nil).Once()
	f.authority.On("GetAccess", mock.Anything, "u1").Return(&models.AccessRecord{
		HasAccess: true, AccessType: models.AccessTrial, Plan: &plan, DaysRemaining: &days,
	}, nil).Once()
	pub.On("Publish", mock.Anything, rabbitmq.RoutingTrialStarted, mock.Anything).Return(errors.New("broker down")).Once()

	res := svc.StartTrial(context.Background(), user)

	assert.True(t, res.Success)
	require.NotNil(t, res.DaysRemaining)
	assert.Equal(t, 7, *res.DaysRemaining)
	require.NotNil(t, res.Access)
	assert.Equal(t, models.AccessTrial, res.Access.AccessType)
	pub.AssertExpectations(t)
}

func TestStartTrial_NetworkFailureHasNoLocalFallback(t *testing.T) {
	svc, f, _ := newServiceFixture(t)
	f.authority.On("StartTrial", mock.Anything, mock.Anything).Return(nil, errUnreachable).Once()

	res := svc.StartTrial(context.Background(), user)

	assert.False(t, res.Success)
	assert.Equal(t, msgUnavailable, res.Message)
	assert.Nil(t, res.DaysRemaining)
	f.authority.AssertNotCalled(t, "GetAccess", mock.Anything, mock.Anything)
	_, found, err := f.store.Get(context.Background(), cache.ReverseTrialStartKey("u1"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStartTrial_Rejected(t *testing.T) {
	svc, f, _ := newServiceFixture(t)
	f.authority.On("StartTrial", mock.Anything, mock.Anything).
		Return(&authority.StartTrialResponse{Success: false}, nil).Once()

	res := svc.StartTrial(context.Background(), user)

	assert.False(t, res.Success)
	assert.Equal(t, msgTrialNotStart, res.Message)
}

func TestCreateCheckoutSession_AttachesBetaCoupon(t *testing.T) {
	svc, f, pub := newServiceFixture(t)
	require.NoError(t, f.store.Set(context.Background(), cache.BetaCouponKey("u1"), "coupon-42"))

	f.authority.On("CreateCheckoutSession", mock.Anything, authority.CheckoutRequest{
		PlanID:     "professional",
		UserID:     "u1",
		Email:      "u1@example.com",
		SuccessURL: testURLs.Success,
		CancelURL:  testURLs.Cancel,
		CouponID:   "coupon-42",
	}).Return(&authority.CheckoutResponse{URL: "https://pay.example.com/s/1"}, nil).Once()
	f.authority.On("GetAccess", mock.Anything, "u1").
		Return(&models.AccessRecord{HasAccess: true, AccessType: models.AccessFree}, nil).Once()
	pub.On("Publish", mock.Anything, rabbitmq.RoutingCheckoutCreated, mock.Anything).Return(nil).Once()

	url, ok := svc.CreateCheckoutSession(context.Background(), "professional", user)

	assert.True(t, ok)
	assert.Equal(t, "https://pay.example.com/s/1", url)
	f.authority.AssertExpectations(t)
}

func TestCreateCheckoutSession_WithoutCoupon(t *testing.T) {
	svc, f, pub := newServiceFixture(t)
	f.authority.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req authority.CheckoutRequest) bool {
		return req.CouponID == "" && req.PlanID == "professional"
	})).Return(&authority.CheckoutResponse{URL: "https://pay.example.com/s/2"}, nil).Once()
	f.authority.On("GetAccess", mock.Anything, "u1").Return(nil, errRejectedAPI).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	url, ok := svc.CreateCheckoutSession(context.Background(), "professional", user)

	assert.True(t, ok)
	assert.Equal(t, "https://pay.example.com/s/2", url)
}

func TestCreateCheckoutSession_Failures(t *testing.T) {
	t.Run("сеть недоступна", func(t *testing.T) {
		svc, f, _ := newServiceFixture(t)
		f.authority.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errUnreachable).Once()

		url, ok := svc.CreateCheckoutSession(context.Background(), "professional", user)

		assert.False(t, ok)
		assert.Empty(t, url)
		f.authority.AssertNotCalled(t, "GetAccess", mock.Anything, mock.Anything)
	})

	t.Run("сервис отказал", func(t *testing.T) {
		svc, f, _ := newServiceFixture(t)
		f.authority.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errRejectedAPI).Once()

		_, ok := svc.CreateCheckoutSession(context.Background(), "professional", user)
		assert.False(t, ok)
	})

	t.Run("без плана и без пользователя", func(t *testing.T) {
		svc, f, _ := newServiceFixture(t)

		_, ok := svc.CreateCheckoutSession(context.Background(), "", user)
		assert.False(t, ok)
		_, ok = svc.CreateCheckoutSession(context.Background(), "professional", models.Identity{})
		assert.False(t, ok)
		f.authority.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})
}

func TestService_WithoutPublisher(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.authority, f.resolver, f.store, testURLs, newNoopLogger())
	f.authority.On("StartTrial", mock.Anything, mock.Anything).
		Return(&authority.StartTrialResponse{Success: true}, nil).Once()
	f.authority.On("GetAccess", mock.Anything, "u1").Return(nil, errUnreachable).Once()

	res := svc.StartTrial(context.Background(), user)

	assert.True(t, res.Success)
	require.NotNil(t, res.Access)
	assert.Equal(t, models.AccessReverseTrial, res.Access.AccessType)
}
