package entitlements

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/entitlements/internal/cache"
	"github.com/magabrotheeeer/entitlements/internal/config"
	"github.com/magabrotheeeer/entitlements/internal/migrations"
	"github.com/magabrotheeeer/entitlements/internal/services/entitlement"
	"github.com/magabrotheeeer/entitlements/internal/storage"
)

// Store локальное хранилище прав доступа с проверкой соединения.
type Store interface {
	entitlement.Store
	Ping(ctx context.Context) error
	Close() error
}

// OpenStore открывает хранилище по драйверу из конфига. Для postgres
// предварительно применяются миграции.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	const op = "entitlements.OpenStore"

	switch cfg.Driver {
	case config.StoreRedis:
		s, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("redis store connected", slog.String("addr", cfg.AddressRedis))
		return s, nil

	case config.StorePostgres:
		s, err := storage.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = migrations.Run(s.DB, cfg.MigrationsPath); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = storage.CheckDatabaseReady(ctx, s); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("postgres store connected")
		return s, nil

	case config.StoreMemory:
		log.Warn("in-memory store selected, state is lost on restart")
		return cache.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("%s: unknown store driver %q", op, cfg.Driver)
	}
}
