// Package create реализует HTTP-обработчик создания платёжной сессии.
//
// Отсутствие адреса в ответе сервиса означает, что оплату начать не удалось,
// поэтому обработчик отвечает 502, а не пустым успехом.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Request тело запроса.
type Request struct {
	PlanID string `json:"plan_id" validate:"required,alphanum,max=64" example:"professional"`
}

// Result тело успешного ответа.
type Result struct {
	URL string `json:"url"`
}

// Handler обрабатывает создание платёжной сессии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает создание платёжной сессии.
type Service interface {
	CreateCheckoutSession(ctx context.Context, planID string, id models.Identity) (string, bool)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Начать оплату
// @Description Создаёт платёжную сессию и возвращает адрес страницы оплаты.
// @Tags Checkout
// @Accept  json
// @Produce  json
// @Param request body Request true "Тариф"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Оплату начать не удалось"
// @Router /checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.create"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	url, ok := h.service.CreateCheckoutSession(r.Context(), req.PlanID, id)
	if !ok {
		log.Error("checkout session not created", slog.String("plan_id", req.PlanID))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not start checkout"))
		return
	}

	log.Info("checkout session created", slog.String("plan_id", req.PlanID))
	render.JSON(w, r, response.StatusOKWithData(Result{URL: url}))
}
