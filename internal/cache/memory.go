package cache

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore хранилище в памяти процесса, для локальной разработки и тестов.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore создаёт хранилище без вытеснения по времени.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("cache.MemoryStore.Get: unexpected value type %T", v)
	}
	return s, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.c.Set(key, value, gocache.NoExpiration)
	return nil
}

// SetIfAbsent использует атомарный Add из go-cache.
func (m *MemoryStore) SetIfAbsent(_ context.Context, key, value string) (bool, error) {
	if err := m.c.Add(key, value, gocache.NoExpiration); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Len возвращает число ключей в хранилище.
func (m *MemoryStore) Len() int {
	return m.c.ItemCount()
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
