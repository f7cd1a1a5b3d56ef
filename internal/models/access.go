// Package models содержит доменные структуры сервиса прав доступа:
// тип доступа, итоговую запись о доступе пользователя и таблицу квот
// для бесплатного тарифа free_lite.
package models

import (
	"math"
	"time"
)

// AccessType закрытое множество взаимоисключающих типов доступа.
type AccessType string

const (
	AccessBeta         AccessType = "beta"
	AccessSubscription AccessType = "subscription"
	AccessTrial        AccessType = "trial"
	AccessFreeTrial    AccessType = "free_trial"
	AccessReverseTrial AccessType = "reverse_trial"
	AccessFreeLite     AccessType = "free_lite"
	AccessFree         AccessType = "free"
	AccessNone         AccessType = "none"
)

const (
	// ReverseTrialDays длительность обратного триала в днях.
	ReverseTrialDays = 14
	// ProfessionalPlan план, который выдаётся на время обратного триала.
	ProfessionalPlan = "professional"
)

// Valid сообщает, входит ли значение в закрытое множество типов доступа.
func (t AccessType) Valid() bool {
	switch t {
	case AccessBeta, AccessSubscription, AccessTrial, AccessFreeTrial,
		AccessReverseTrial, AccessFreeLite, AccessFree, AccessNone:
		return true
	}
	return false
}

// TimeBoxed возвращает true для типов, ограниченных по времени.
func (t AccessType) TimeBoxed() bool {
	return t == AccessTrial || t == AccessFreeTrial || t == AccessReverseTrial
}

// Provenance источник, из которого получена запись о доступе.
// Наружу не сериализуется.
type Provenance string

const (
	ProvenanceAuthority     Provenance = "authority"
	ProvenanceCache         Provenance = "cache"
	ProvenanceLocalFallback Provenance = "local-fallback"
	ProvenanceGuest         Provenance = "guest"
	ProvenanceAnonymous     Provenance = "anonymous"
)

// AccessRecord итоговый снимок прав доступа пользователя.
// Формат JSON совпадает с ответом внешнего сервиса прав доступа.
type AccessRecord struct {
	HasAccess          bool         `json:"hasAccess"`
	AccessType         AccessType   `json:"accessType"`
	Plan               *string      `json:"plan,omitempty"`
	MemberNumber       *int         `json:"memberNumber,omitempty"`
	TrialEnd           *time.Time   `json:"trialEnd,omitempty"`
	DaysRemaining      *int         `json:"daysRemaining,omitempty"`
	Limits             *QuotaLimits `json:"limits,omitempty"`
	ReverseTrialActive *bool        `json:"reverseTrialActive,omitempty"`

	Provenance Provenance `json:"-"`
}

// NoAccess возвращает терминальную запись без доступа.
func NoAccess() AccessRecord {
	return AccessRecord{HasAccess: false, AccessType: AccessNone, Provenance: ProvenanceAnonymous}
}

// ReverseTrial возвращает активный обратный триал с указанным остатком дней.
func ReverseTrial(daysRemaining int) AccessRecord {
	return AccessRecord{
		HasAccess:          true,
		AccessType:         AccessReverseTrial,
		Plan:               ptr(ProfessionalPlan),
		DaysRemaining:      ptr(daysRemaining),
		ReverseTrialActive: ptr(true),
	}
}

// GuestReverseTrial возвращает свежий обратный триал для гостя.
func GuestReverseTrial() AccessRecord {
	rec := ReverseTrial(ReverseTrialDays)
	rec.Provenance = ProvenanceGuest
	return rec
}

// FreeLite возвращает запись бесплатного тарифа с квотами LiteLimits.
func FreeLite() AccessRecord {
	limits := LiteLimits
	return AccessRecord{
		HasAccess:          true,
		AccessType:         AccessFreeLite,
		Limits:             &limits,
		ReverseTrialActive: ptr(false),
	}
}

// Expired сообщает, что обратный триал исчерпал свой срок.
func (r AccessRecord) Expired() bool {
	return r.AccessType == AccessReverseTrial && r.DaysRemaining != nil && *r.DaysRemaining <= 0
}

// WithDaysFromTrialEnd восстанавливает остаток дней reverse_trial по trialEnd,
// если остаток не записан. Применяется к записям из кеша, ответ внешнего
// сервиса не дополняется.
func (r AccessRecord) WithDaysFromTrialEnd(now time.Time) AccessRecord {
	if r.AccessType == AccessReverseTrial && r.DaysRemaining == nil && r.TrialEnd != nil {
		r.DaysRemaining = ptr(daysUntil(now, *r.TrialEnd))
	}
	return r
}

// Normalize приводит запись к инвариантам модели независимо от её источника:
// исчерпанный reverse_trial превращается в free_lite, у free_lite всегда есть квоты.
func (r AccessRecord) Normalize() AccessRecord {
	if r.Expired() {
		out := FreeLite()
		out.Provenance = r.Provenance
		return out
	}
	if r.AccessType == AccessFreeLite {
		r.HasAccess = true
		if r.Limits == nil {
			limits := LiteLimits
			r.Limits = &limits
		}
	}
	return r
}

// Days возвращает остаток дней или 0, если он не задан.
func (r AccessRecord) Days() int {
	if r.DaysRemaining == nil {
		return 0
	}
	return *r.DaysRemaining
}

func daysUntil(now, end time.Time) int {
	days := int(math.Ceil(end.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

func ptr[T any](v T) *T {
	return &v
}
