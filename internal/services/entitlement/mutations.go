package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/authority"
	"github.com/magabrotheeeer/entitlements/internal/cache"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/metrics"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/rabbitmq"
)

// Операции изменения прав доступа.
const (
	OpRedeemBetaCode = "redeem_beta_code"
	OpStartTrial     = "start_trial"
	OpCheckout       = "create_checkout_session"
)

const (
	msgUnavailable   = "entitlement service is unavailable, please try again later"
	msgSignInNeeded  = "sign in to continue"
	msgCodeRequired  = "beta code is required"
	msgTrialNotStart = "trial could not be started"
)

// CheckoutURLs адреса возврата со страницы оплаты.
type CheckoutURLs struct {
	Success string
	Cancel  string
}

// Service выполняет операции изменения прав доступа. Каждая успешная операция
// заново разрешает права доступа пользователя.
type Service struct {
	client    AuthorityClient
	resolver  RefreshingResolver
	store     Store
	publisher EventPublisher
	urls      CheckoutURLs
	log       *slog.Logger
}

// ServiceOption настраивает Service.
type ServiceOption func(*Service)

// WithPublisher включает публикацию событий об успешных операциях.
func WithPublisher(p EventPublisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

// NewService создает новый экземпляр Service.
func NewService(client AuthorityClient, resolver RefreshingResolver, store Store, urls CheckoutURLs, log *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		client:   client,
		resolver: resolver,
		store:    store,
		urls:     urls,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RedeemBetaCode активирует бета-код. При отказе возвращает сообщение сервиса как есть.
func (s *Service) RedeemBetaCode(ctx context.Context, code string, id models.Identity) models.RedeemResult {
	const op = "entitlement.RedeemBetaCode"
	log := s.log.With(slog.String("op", op), slog.String("user_id", id.UserID))

	if id.Anonymous() {
		return models.RedeemResult{Success: false, Message: msgSignInNeeded}
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return models.RedeemResult{Success: false, Message: msgCodeRequired}
	}

	resp, err := s.client.RedeemBetaCode(ctx, authority.RedeemBetaCodeRequest{
		Code:   code,
		UserID: id.UserID,
		Email:  id.Email,
	})
	if err != nil {
		log.Error("failed to redeem beta code", sl.Err(err))
		s.count(OpRedeemBetaCode, err)
		return models.RedeemResult{Success: false, Message: failureMessage(err, msgUnavailable)}
	}
	if !resp.Success {
		log.Info("beta code rejected", slog.String("message", resp.Message))
		s.count(OpRedeemBetaCode, errRejected)
		return models.RedeemResult{Success: false, Message: resp.Message}
	}

	rec := s.refresh(ctx, id)
	s.count(OpRedeemBetaCode, nil)
	s.publish(ctx, rabbitmq.RoutingBetaRedeemed, OpRedeemBetaCode, id, rec)
	log.Info("beta code redeemed", slog.String("access_type", string(rec.AccessType)))

	return models.RedeemResult{Success: true, Message: resp.Message, Access: &rec}
}

// StartTrial запускает триал. Локального запасного пути нет, при недоступности
// сервиса результат неуспешный.
func (s *Service) StartTrial(ctx context.Context, id models.Identity) models.TrialResult {
	const op = "entitlement.StartTrial"
	log := s.log.With(slog.String("op", op), slog.String("user_id", id.UserID))

	if id.Anonymous() {
		return models.TrialResult{Success: false, Message: msgSignInNeeded}
	}

	resp, err := s.client.StartTrial(ctx, authority.StartTrialRequest{UserID: id.UserID})
	if err != nil {
		log.Error("failed to start trial", sl.Err(err))
		s.count(OpStartTrial, err)
		return models.TrialResult{Success: false, Message: failureMessage(err, msgUnavailable)}
	}
	if !resp.Success {
		s.count(OpStartTrial, errRejected)
		msg := resp.Message
		if msg == "" {
			msg = msgTrialNotStart
		}
		return models.TrialResult{Success: false, Message: msg}
	}

	rec := s.refresh(ctx, id)
	s.count(OpStartTrial, nil)
	s.publish(ctx, rabbitmq.RoutingTrialStarted, OpStartTrial, id, rec)
	log.Info("trial started", slog.String("access_type", string(rec.AccessType)))

	return models.TrialResult{
		Success:       true,
		Message:       resp.Message,
		DaysRemaining: resp.DaysRemaining,
		Access:        &rec,
	}
}

// CreateCheckoutSession возвращает адрес страницы оплаты. ok=false означает,
// что оплату начать не удалось, а не то, что оплата не нужна.
func (s *Service) CreateCheckoutSession(ctx context.Context, planID string, id models.Identity) (url string, ok bool) {
	const op = "entitlement.CreateCheckoutSession"
	log := s.log.With(slog.String("op", op), slog.String("user_id", id.UserID))

	if id.Anonymous() || strings.TrimSpace(planID) == "" {
		return "", false
	}

	req := authority.CheckoutRequest{
		PlanID:     planID,
		UserID:     id.UserID,
		Email:      id.Email,
		SuccessURL: s.urls.Success,
		CancelURL:  s.urls.Cancel,
	}
	coupon, found, err := s.store.Get(ctx, cache.BetaCouponKey(id.UserID))
	if err != nil {
		log.Warn("failed to read beta coupon", sl.Err(err))
	}
	if found && coupon != "" {
		req.CouponID = coupon
	}

	resp, err := s.client.CreateCheckoutSession(ctx, req)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		s.count(OpCheckout, err)
		return "", false
	}

	rec := s.refresh(ctx, id)
	s.count(OpCheckout, nil)
	s.publish(ctx, rabbitmq.RoutingCheckoutCreated, OpCheckout, id, rec)
	log.Info("checkout session created", slog.String("plan_id", planID), slog.Bool("coupon", req.CouponID != ""))

	return resp.URL, true
}

var errRejected = errors.New("rejected")

func (s *Service) refresh(ctx context.Context, id models.Identity) models.AccessRecord {
	s.resolver.Forget(id.UserID)
	return s.resolver.Resolve(ctx, id)
}

func (s *Service) count(operation string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case authority.IsUnreachable(err):
		outcome = metrics.OutcomeUnreachable
	case err != nil:
		outcome = metrics.OutcomeRejected
	}
	metrics.Mutations.WithLabelValues(operation, outcome).Inc()
}

func (s *Service) publish(ctx context.Context, routingKey, operation string, id models.Identity, rec models.AccessRecord) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, routingKey, rabbitmq.Event{
		UserID:     id.UserID,
		Email:      id.Email,
		Operation:  operation,
		AccessType: rec.AccessType,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("failed to publish entitlement event",
			slog.String("operation", operation),
			slog.String("user_id", id.UserID),
			sl.Err(err))
	}
}

func failureMessage(err error, fallback string) string {
	if msg, ok := authority.RejectionMessage(err); ok && msg != "" {
		return msg
	}
	return fallback
}
