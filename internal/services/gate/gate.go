// Package gate решает, что показать пользователю по его записи о доступе:
// защищённое содержимое, экран загрузки или пейволл.
package gate

import (
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Posture итоговое решение о доступе.
type Posture string

const (
	PostureLoading Posture = "loading"
	PostureDenied  Posture = "denied"
	PostureGranted Posture = "granted"
)

// BannerKind вид баннера поверх разрешённого содержимого.
type BannerKind string

const (
	BannerNone          BannerKind = "none"
	BannerCountdown     BannerKind = "countdown"
	BannerQuotaPressure BannerKind = "quota_pressure"
	BannerUpsell        BannerKind = "upsell"
	BannerBetaBadge     BannerKind = "beta_badge"
)

// Offer действие, предлагаемое на пейволле.
type Offer string

const (
	OfferRedeemBetaCode Offer = "redeem_beta_code"
	OfferStartTrial     Offer = "start_trial"
	OfferCheckout       Offer = "checkout"
)

// UrgentDays порог, начиная с которого обратный отсчёт считается срочным.
const UrgentDays = 3

// Banner описание баннера.
type Banner struct {
	Kind          BannerKind          `json:"kind"`
	DaysRemaining *int                `json:"daysRemaining,omitempty"`
	Urgent        bool                `json:"urgent,omitempty"`
	Limits        *models.QuotaLimits `json:"limits,omitempty"`
	MemberNumber  *int                `json:"memberNumber,omitempty"`
}

// Decision результат проверки доступа.
type Decision struct {
	Posture Posture `json:"posture"`
	Banner  *Banner `json:"banner,omitempty"`
	Offers  []Offer `json:"offers,omitempty"`
}

// Allowed сообщает, можно ли показывать защищённое содержимое.
func (d Decision) Allowed() bool {
	return d.Posture == PostureGranted
}

// Evaluate определяет решение для записи. nil означает, что разрешение ещё идёт.
func Evaluate(rec *models.AccessRecord) Decision {
	if rec == nil {
		return Decision{Posture: PostureLoading}
	}
	if !rec.HasAccess {
		return Decision{
			Posture: PostureDenied,
			Offers:  []Offer{OfferRedeemBetaCode, OfferStartTrial, OfferCheckout},
		}
	}
	return Decision{Posture: PostureGranted, Banner: banner(rec)}
}

func banner(rec *models.AccessRecord) *Banner {
	switch {
	case rec.AccessType.TimeBoxed():
		b := &Banner{Kind: BannerCountdown}
		if rec.DaysRemaining != nil {
			days := *rec.DaysRemaining
			b.DaysRemaining = &days
			b.Urgent = days <= UrgentDays
		}
		return b
	case rec.AccessType == models.AccessFreeLite:
		limits := models.LiteLimits
		if rec.Limits != nil {
			limits = *rec.Limits
		}
		return &Banner{Kind: BannerQuotaPressure, Limits: &limits}
	case rec.AccessType == models.AccessFree:
		return &Banner{Kind: BannerUpsell}
	case rec.AccessType == models.AccessBeta:
		return &Banner{Kind: BannerBetaBadge, MemberNumber: rec.MemberNumber}
	default:
		return &Banner{Kind: BannerNone}
	}
}
