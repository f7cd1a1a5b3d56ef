// Package redeem реализует HTTP-обработчик активации бета-кода.
//
// Handler принимает JSON с кодом, валидирует его и передаёт сервису прав доступа.
// Отказ сервиса возвращается в теле RedeemResult с success=false, а не кодом ошибки HTTP.
package redeem

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
	Code string `json:"code" validate:"required,max=64,printascii" example:"BETA-XXXX"`
}

// Handler обрабатывает активацию бета-кода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает активацию бета-кода.
type Service interface {
	RedeemBetaCode(ctx context.Context, code string, id models.Identity) models.RedeemResult
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
// @Summary Активировать бета-код
// @Description Активирует бета-код и возвращает обновлённые права доступа.
// @Tags Beta
// @Accept  json
// @Produce  json
// @Param request body Request true "Бета-код"
// @Success 200 {object} response.Response{data=models.RedeemResult}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /beta/redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.beta.redeem"
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

	res := h.service.RedeemBetaCode(r.Context(), req.Code, id)
	log.Info("beta code redeem finished", slog.Bool("success", res.Success))
	render.JSON(w, r, response.StatusOKWithData(res))
}
