package entitlement

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/cache"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// fromCache читает последнюю запись о доступе. Исчерпанный обратный триал
// из кеша не возвращается как активный. Отсутствующая или испорченная запись
// приводит к локальному вычислению обратного триала.
func (r *Resolver) fromCache(ctx context.Context, userID string, now time.Time) models.AccessRecord {
	const op = "entitlement.fromCache"
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	rec, ok := r.readCached(ctx, userID)
	if !ok {
		return r.localReverseTrial(ctx, userID, now)
	}
	rec = rec.WithDaysFromTrialEnd(now)
	if rec.Expired() {
		log.Info("cached reverse trial exhausted, downgrading to free_lite")
		out := models.FreeLite()
		out.Provenance = models.ProvenanceCache
		return out
	}
	return rec.Normalize()
}

func (r *Resolver) readCached(ctx context.Context, userID string) (models.AccessRecord, bool) {
	const op = "entitlement.readCached"
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))

	raw, found, err := r.store.Get(ctx, cache.AccessKey(userID))
	if err != nil {
		log.Warn("failed to read cached access", sl.Err(err))
		return models.AccessRecord{}, false
	}
	if !found {
		return models.AccessRecord{}, false
	}

	var rec models.AccessRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Warn("cached access is corrupt", sl.Err(err))
		return models.AccessRecord{}, false
	}
	if !rec.AccessType.Valid() {
		log.Warn("cached access has unknown type", slog.String("access_type", string(rec.AccessType)))
		return models.AccessRecord{}, false
	}
	rec.Provenance = models.ProvenanceCache
	return rec, true
}

// persist перезаписывает кеш записью rec. Ошибки записи только логируются.
func (r *Resolver) persist(ctx context.Context, userID string, rec models.AccessRecord) {
	const op = "entitlement.persist"

	data, err := json.Marshal(rec)
	if err != nil {
		r.log.Error("failed to encode access", slog.String("op", op), sl.Err(err))
		return
	}
	if err := r.store.Set(ctx, cache.AccessKey(userID), string(data)); err != nil {
		r.log.Warn("failed to cache access",
			slog.String("op", op),
			slog.String("key", cache.AccessKey(userID)),
			sl.Err(err))
	}
}
