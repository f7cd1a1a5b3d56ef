package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/services/gate"
)

// AccessResolver разрешает запись о доступе.
type AccessResolver interface {
	Resolve(ctx context.Context, id models.Identity) models.AccessRecord
}

// AccessGate пропускает запрос к защищённому содержимому только при наличии
// доступа. Без доступа отвечает 402 Payment Required с решением пейволла.
func AccessGate(log *slog.Logger, resolver AccessResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AccessGate"
			id := IdentityFromContext(r.Context())
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("user_id", id.UserID),
			)

			rec := resolver.Resolve(r.Context(), id)
			decision := gate.Evaluate(&rec)
			if !decision.Allowed() {
				log.Info("access denied, paywall shown", slog.String("access_type", string(rec.AccessType)))
				render.Status(r, http.StatusPaymentRequired)
				render.JSON(w, r, response.ErrorWithData("access denied", decision))
				return
			}

			ctx := context.WithValue(r.Context(), AccessKey, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessFromContext возвращает запись, которую положил AccessGate.
func AccessFromContext(ctx context.Context) (models.AccessRecord, bool) {
	rec, ok := ctx.Value(AccessKey).(models.AccessRecord)
	return rec, ok
}
