package entitlements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/entitlements/internal/authority"
	"github.com/magabrotheeeer/entitlements/internal/config"
	"github.com/magabrotheeeer/entitlements/internal/lib/jwt"
	"github.com/magabrotheeeer/entitlements/internal/rabbitmq"
	"github.com/magabrotheeeer/entitlements/internal/services/entitlement"
)

// Core собранные зависимости сервиса прав доступа. Используется и
// HTTP-сервером, и утилитой командной строки.
type Core struct {
	Store    Store
	Resolver *entitlement.Resolver
	Service  *entitlement.Service
	Tokens   *jwt.MakerImpl

	amqpConn *amqp.Connection
	amqpCh   *amqp.Channel
}

// NewCore открывает хранилище, создаёт клиент внешнего сервиса и, если
// задан адрес брокера, издателя событий.
func NewCore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Core, error) {
	const op = "entitlements.NewCore"

	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := authority.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Authority.Timeout)
	resolver := entitlement.NewResolver(client, store, log)

	core := &Core{
		Store:    store,
		Resolver: resolver,
		Tokens:   jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
	}

	var opts []entitlement.ServiceOption
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetEntitlementQueues())
		if err != nil {
			_ = conn.Close()
			_ = store.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		core.amqpConn, core.amqpCh = conn, ch
		opts = append(opts, entitlement.WithPublisher(rabbitmq.NewPublisher(ch, cfg.Exchange)))
		log.Info("entitlement events enabled", slog.String("exchange", cfg.Exchange))
	}

	core.Service = entitlement.NewService(client, resolver, store, entitlement.CheckoutURLs{
		Success: cfg.SuccessURL,
		Cancel:  cfg.CancelURL,
	}, log, opts...)

	return core, nil
}

// Close освобождает соединения.
func (c *Core) Close() error {
	var errs []error
	if c.amqpCh != nil {
		errs = append(errs, c.amqpCh.Close())
	}
	if c.amqpConn != nil {
		errs = append(errs, c.amqpConn.Close())
	}
	errs = append(errs, c.Store.Close())
	return errors.Join(errs...)
}
