// Package read реализует HTTP-обработчик чтения прав доступа текущего пользователя.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/services/gate"
)

// Handler отдаёт запись о доступе вместе с решением гейта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает разрешение прав доступа.
type Service interface {
	Resolve(ctx context.Context, id models.Identity) models.AccessRecord
}

// Result тело успешного ответа.
type Result struct {
	Access   models.AccessRecord `json:"access"`
	Decision gate.Decision       `json:"decision"`
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Права доступа текущего пользователя
// @Description Разрешает запись о доступе и решение гейта. Без токена отвечает для анонима.
// @Tags Access
// @Produce  json
// @Success 200 {object} response.Response{data=Result}
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Router /access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.read"
	id := middlewarectx.IdentityFromContext(r.Context())
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", id.UserID),
	)

	rec := h.service.Resolve(r.Context(), id)
	decision := gate.Evaluate(&rec)

	log.Info("access resolved",
		slog.String("access_type", string(rec.AccessType)),
		slog.String("posture", string(decision.Posture)))
	render.JSON(w, r, response.StatusOKWithData(Result{
		Access:   rec,
		Decision: decision,
	}))
}
