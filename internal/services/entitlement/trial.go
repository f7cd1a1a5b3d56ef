package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/cache"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

const day = 24 * time.Hour

// localReverseTrial вычисляет обратный триал по метке старта пользователя.
// Метка создаётся один раз при первом вызове и больше не перезаписывается.
func (r *Resolver) localReverseTrial(ctx context.Context, userID string, now time.Time) models.AccessRecord {
	start, ok := r.startMarker(ctx, userID, now)
	if !ok {
		return exhausted()
	}

	remaining := ReverseTrialDaysRemaining(start, now)
	if remaining > 0 {
		rec := models.ReverseTrial(remaining)
		rec.Provenance = models.ProvenanceLocalFallback
		return rec
	}
	return exhausted()
}

func exhausted() models.AccessRecord {
	rec := models.FreeLite()
	zero := 0
	rec.DaysRemaining = &zero
	rec.Provenance = models.ProvenanceLocalFallback
	return rec
}

// ReverseTrialDaysRemaining возвращает остаток дней обратного триала,
// начатого в start: 14 минус число полных прошедших суток, не меньше нуля.
func ReverseTrialDaysRemaining(start, now time.Time) int {
	elapsed := int(now.Sub(start) / day)
	if elapsed < 0 {
		elapsed = 0
	}
	return max(0, models.ReverseTrialDays-elapsed)
}

// startMarker читает или создаёт метку старта. ok=false означает, что метка
// есть, но прочитать её нельзя; такой триал считается исчерпанным.
func (r *Resolver) startMarker(ctx context.Context, userID string, now time.Time) (time.Time, bool) {
	const op = "entitlement.startMarker"
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))
	key := cache.ReverseTrialStartKey(userID)

	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		log.Warn("failed to read reverse trial start", sl.Err(err))
	}
	if !found {
		created, err := r.store.SetIfAbsent(ctx, key, now.UTC().Format(time.RFC3339Nano))
		if err != nil {
			log.Warn("failed to store reverse trial start", sl.Err(err))
			return now, true
		}
		if created {
			log.Info("local reverse trial started")
			return now, true
		}
		// метку успело создать параллельное разрешение
		raw, found, err = r.store.Get(ctx, key)
		if err != nil || !found {
			return now, true
		}
	}

	start, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		log.Error("reverse trial start is corrupt", slog.String("value", raw), sl.Err(err))
		return time.Time{}, false
	}
	return start, true
}
