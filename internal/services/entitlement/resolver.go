package entitlement

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/entitlements/internal/authority"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/metrics"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Resolver разрешает права доступа пользователя. Никогда не возвращает ошибку:
// любой сбой превращается в корректную, пусть и урезанную, запись о доступе.
type Resolver struct {
	authority AccessSource
	store     Store
	log       *slog.Logger
	now       func() time.Time
	group     singleflight.Group

	mu     sync.Mutex
	epochs map[string]uint64
}

// Option настраивает Resolver.
type Option func(*Resolver)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver создает новый экземпляр Resolver.
func NewResolver(source AccessSource, store Store, log *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		authority: source,
		store:     store,
		log:       log,
		now:       time.Now,
		epochs:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve возвращает запись о доступе для identity.
//
// Порядок: нет пользователя → none; гость → свежий обратный триал;
// иначе внешний сервис, при отказе локальный обратный триал,
// при недоступности кеш, а без кеша локальный обратный триал.
// Результат, отличный от none, сохраняется в кеш под userId, для которого
// было начато разрешение.
func (r *Resolver) Resolve(ctx context.Context, id models.Identity) models.AccessRecord {
	const op = "entitlement.Resolve"

	if id.Anonymous() {
		rec := models.NoAccess()
		r.observe(rec)
		return rec
	}

	if id.IsGuest {
		rec := models.GuestReverseTrial()
		r.persist(ctx, id.UserID, rec)
		r.observe(rec)
		return rec
	}

	// Параллельные разрешения одного пользователя сходятся в один вызов.
	// Общая работа не зависит от отмены отдельного вызывающего.
	ch := r.group.DoChan(id.UserID, func() (any, error) {
		return r.resolveUser(context.WithoutCancel(ctx), id.UserID, r.epoch(id.UserID)), nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.AccessRecord)
	case <-ctx.Done():
		r.log.Debug("resolution abandoned by caller",
			slog.String("op", op),
			slog.String("user_id", id.UserID),
			sl.Err(ctx.Err()))
		return models.NoAccess()
	}
}

func (r *Resolver) resolveUser(ctx context.Context, userID string, epoch uint64) models.AccessRecord {
	const op = "entitlement.resolveUser"
	log := r.log.With(slog.String("op", op), slog.String("user_id", userID))
	now := r.now()

	var out models.AccessRecord
	rec, err := r.authority.GetAccess(ctx, userID)
	switch {
	case err == nil && rec != nil:
		out = rec.Normalize()
		out.Provenance = models.ProvenanceAuthority
		if out.AccessType == models.AccessBeta && out.MemberNumber != nil {
			log.Info("beta tester resolved", slog.Int("member_number", *out.MemberNumber))
		}
	case authority.IsUnreachable(err):
		log.Warn("entitlement authority unreachable, using cache", sl.Err(err))
		out = r.fromCache(ctx, userID, now)
	default:
		if err != nil {
			log.Warn("entitlement authority rejected request, computing locally", sl.Err(err))
		}
		out = r.localReverseTrial(ctx, userID, now)
	}

	if out.AccessType != models.AccessNone {
		r.persistSince(ctx, userID, epoch, out)
	}
	r.observe(out)
	return out
}

// persistSince пишет запись в кеш, только если после начала разрешения
// не было Forget. Иначе запись устарела и затёрла бы более свежую.
func (r *Resolver) persistSince(ctx context.Context, userID string, epoch uint64, rec models.AccessRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epochs[userID] != epoch {
		r.log.Debug("discarding stale resolution",
			slog.String("op", "entitlement.persistSince"),
			slog.String("user_id", userID))
		return
	}
	r.persist(ctx, userID, rec)
}

func (r *Resolver) epoch(userID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epochs[userID]
}

// Forget отвязывает следующие вызовы Resolve для userID от уже идущего
// разрешения. Нужен после изменения прав доступа, чтобы не получить
// ответ, запрошенный до изменения.
// Уже идущее разрешение после Forget свой результат в кеш не пишет.
func (r *Resolver) Forget(userID string) {
	r.mu.Lock()
	r.epochs[userID]++
	r.mu.Unlock()
	r.group.Forget(userID)
}

func (r *Resolver) observe(rec models.AccessRecord) {
	metrics.Resolutions.WithLabelValues(string(rec.Provenance), string(rec.AccessType)).Inc()
}
