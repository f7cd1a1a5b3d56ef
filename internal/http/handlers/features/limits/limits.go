// Package limits отдаёт квоты тарифа пользователя. Обработчик стоит за
// AccessGate и читает запись о доступе из контекста запроса.
package limits

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Result квоты тарифа. Limits равен null для тарифов без ограничений.
type Result struct {
	AccessType models.AccessType   `json:"accessType"`
	Limits     *models.QuotaLimits `json:"limits"`
}

// Handler отдаёт квоты.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Квоты тарифа
// @Description Возвращает ограничения тарифа free_lite или null для тарифов без ограничений.
// @Tags Features
// @Produce  json
// @Success 200 {object} response.Response{data=Result}
// @Failure 402 {object} response.Response "Нет доступа, решение пейволла в data"
// @Router /features/limits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.features.limits"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rec, ok := middlewarectx.AccessFromContext(r.Context())
	if !ok {
		log.Error("access record not found in context")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	res := Result{AccessType: rec.AccessType}
	if rec.AccessType == models.AccessFreeLite {
		limits := models.LiteLimits
		if rec.Limits != nil {
			limits = *rec.Limits
		}
		res.Limits = &limits
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
