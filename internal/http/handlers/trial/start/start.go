// Package start реализует HTTP-обработчик запуска триала.
package start

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает запуск триала.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает запуск триала.
type Service interface {
	StartTrial(ctx context.Context, id models.Identity) models.TrialResult
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Запустить триал
// @Description Запускает триал у внешнего сервиса. При недоступности сервиса возвращает success=false.
// @Tags Trial
// @Produce  json
// @Success 200 {object} response.Response{data=models.TrialResult}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /trial/start [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.start"
	id := middlewarectx.IdentityFromContext(r.Context())
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", id.UserID),
	)

	if id.Anonymous() {
		log.Error("user not identified")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res := h.service.StartTrial(r.Context(), id)
	log.Info("trial start finished", slog.Bool("success", res.Success))
	render.JSON(w, r, response.StatusOKWithData(res))
}
