// Package entitlement содержит бизнес-логику прав доступа: разрешение записи
// о доступе по цепочке «внешний сервис → локальный кеш → локальный обратный
// триал», операции изменения прав доступа и отслеживание сессии пользователя.
package entitlement

import (
	"context"

	"github.com/magabrotheeeer/entitlements/internal/authority"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/rabbitmq"
)

// Store описывает локальное key-value хранилище прав доступа.
type Store interface {
	// Get возвращает значение по ключу; found=false, если ключа нет.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set перезаписывает значение.
	Set(ctx context.Context, key, value string) error
	// SetIfAbsent записывает значение, только если ключа ещё нет.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
	// Delete удаляет ключ.
	Delete(ctx context.Context, key string) error
}

// AccessSource источник истины о правах доступа.
type AccessSource interface {
	GetAccess(ctx context.Context, userID string) (*models.AccessRecord, error)
}

// AuthorityClient полный набор вызовов внешнего сервиса прав доступа.
type AuthorityClient interface {
	AccessSource
	RedeemBetaCode(ctx context.Context, reqParams authority.RedeemBetaCodeRequest) (*authority.RedeemBetaCodeResponse, error)
	StartTrial(ctx context.Context, reqParams authority.StartTrialRequest) (*authority.StartTrialResponse, error)
	CreateCheckoutSession(ctx context.Context, reqParams authority.CheckoutRequest) (*authority.CheckoutResponse, error)
}

// AccessResolver разрешает запись о доступе для пользователя.
type AccessResolver interface {
	Resolve(ctx context.Context, id models.Identity) models.AccessRecord
}

// RefreshingResolver разрешает права доступа и умеет сбрасывать идущее
// разрешение пользователя.
type RefreshingResolver interface {
	AccessResolver
	Forget(userID string)
}

// EventPublisher публикует события об изменении прав доступа.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event rabbitmq.Event) error
}
