// Package cache реализует локальное хранилище прав доступа в виде
// key-value: последнюю запись о доступе пользователя, метку старта
// обратного триала и купон бета-тестера.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/entitlements/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisStore хранилище на redis. Ключи живут без срока действия.
type RedisStore struct {
	Db *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*RedisStore, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RedisStore{Db: db}, nil
}

// Get возвращает значение по ключу; found=false, если ключа нет.
func (c *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

// Set перезаписывает значение по ключу.
func (c *RedisStore) Set(ctx context.Context, key, value string) error {
	const op = "cache.Set"
	if err := c.Db.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetIfAbsent записывает значение, только если ключа ещё нет.
func (c *RedisStore) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	const op = "cache.SetIfAbsent"
	ok, err := c.Db.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// Delete удаляет ключ.
func (c *RedisStore) Delete(ctx context.Context, key string) error {
	const op = "cache.Delete"
	if err := c.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение с redis.
func (c *RedisStore) Close() error {
	return c.Db.Close()
}

// Ping проверяет соединение с redis.
func (c *RedisStore) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx).Err()
}
