package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

func intPtr(v int) *int { return &v }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		rec         *models.AccessRecord
		wantPosture Posture
		wantBanner  BannerKind
		wantUrgent  bool
	}{
		{
			name:        "разрешение ещё идёт",
			rec:         nil,
			wantPosture: PostureLoading,
		},
		{
			name:        "нет доступа",
			rec:         &models.AccessRecord{HasAccess: false, AccessType: models.AccessNone},
			wantPosture: PostureDenied,
		},
		{
			name:        "обратный триал, много дней",
			rec:         &models.AccessRecord{HasAccess: true, AccessType: models.AccessReverseTrial, DaysRemaining: intPtr(10)},
			wantPosture: PostureGranted,
			wantBanner:  BannerCountdown,
		},
		{
			name:        "триал, осталось 3 дня",
			rec:         &models.AccessRecord{HasAccess: true, AccessType: models.AccessTrial, DaysRemaining: intPtr(3)},
			wantPosture: PostureGranted,
			wantBanner:  BannerCountdown,
			wantUrgent:  true,
		},
		{
			name:        "бесплатный триал без срока",
			rec:         &models.AccessRecord{HasAccess: true, AccessType: models.AccessFreeTrial},
			wantPosture: PostureGranted,
			wantBanner:  BannerCountdown,
		},
		{
			name:        "free_lite",
			rec:         &models.AccessRecord{HasAccess: true, AccessType: models.AccessFreeLite},
			wantPosture: PostureGranted,
			wantBanner:  BannerQuotaPressure,
		},
		{
			name:        "free",
			rec:         &models.AccessRecord{HasAccess: true, AccessType: models.AccessFree},
			wantPosture: PostureGranted,
			wantBanner:  BannerUpsell,
		},
		{
			name:        "бета",
			rec:         &models.AccessRecord{HasAccess: true, AccessType: models.AccessBeta, MemberNumber: intPtr(7)},
			wantPosture: PostureGranted,
			wantBanner:  BannerBetaBadge,
		},
		{
			name:        "подписка",
			rec:         &models.AccessRecord{HasAccess: true, AccessType: models.AccessSubscription},
			wantPosture: PostureGranted,
			wantBanner:  BannerNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.rec)

			assert.Equal(t, tt.wantPosture, d.Posture)
			assert.Equal(t, tt.wantPosture == PostureGranted, d.Allowed())
			if tt.wantPosture != PostureGranted {
				assert.Nil(t, d.Banner)
				return
			}
			require.NotNil(t, d.Banner)
			assert.Equal(t, tt.wantBanner, d.Banner.Kind)
			assert.Equal(t, tt.wantUrgent, d.Banner.Urgent)
		})
	}
}

func TestEvaluate_DeniedOffersPaywall(t *testing.T) {
	d := Evaluate(&models.AccessRecord{HasAccess: false, AccessType: models.AccessNone})

	assert.Equal(t, []Offer{OfferRedeemBetaCode, OfferStartTrial, OfferCheckout}, d.Offers)
}

func TestEvaluate_QuotaPressureCarriesLimits(t *testing.T) {
	rec := models.FreeLite()

	d := Evaluate(&rec)

	require.NotNil(t, d.Banner)
	require.NotNil(t, d.Banner.Limits)
	assert.Equal(t, models.LiteLimits, *d.Banner.Limits)
	assert.False(t, d.Banner.Limits.AIAssistant)
}

func TestEvaluate_BetaBadgeMemberNumber(t *testing.T) {
	d := Evaluate(&models.AccessRecord{HasAccess: true, AccessType: models.AccessBeta, MemberNumber: intPtr(42)})

	require.NotNil(t, d.Banner.MemberNumber)
	assert.Equal(t, 42, *d.Banner.MemberNumber)
}
