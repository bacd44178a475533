package cache

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"
)

// memoryItem stores a serialized value with its expiration.
type memoryItem struct {
	data     []byte
	expireAt time.Time
}

func (m *memoryItem) expired() bool {
	return !m.expireAt.IsZero() && time.Now().After(m.expireAt)
}

// MemoryStore implements Store using an in-process map. Entries are lazily
// evicted on lookup past expiry; a background sweep trims the rest.
type MemoryStore struct {
	data          map[string]*memoryItem
	mutex         sync.RWMutex
	cleanupTicker *time.Ticker
	done          chan struct{}
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	cfg := &MemoryConfig{
		CleanupInterval: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	ms := &MemoryStore{
		data:          make(map[string]*memoryItem),
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		done:          make(chan struct{}),
	}

	go ms.cleanupExpired()
	return ms
}

func (ms *MemoryStore) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		var err error
		data, err = json.Marshal(value)
		if err != nil {
			return err
		}
	}

	var expireAt time.Time
	if expiration > 0 {
		expireAt = time.Now().Add(expiration)
	}

	ms.mutex.Lock()
	ms.data[key] = &memoryItem{data: data, expireAt: expireAt}
	ms.mutex.Unlock()
	return nil
}

func (ms *MemoryStore) Get(_ context.Context, key string, dest interface{}) error {
	ms.mutex.Lock()
	item, exists := ms.data[key]
	if exists && item.expired() {
		delete(ms.data, key)
		exists = false
	}
	ms.mutex.Unlock()

	if !exists {
		return ErrCacheMiss
	}

	switch v := dest.(type) {
	case *[]byte:
		*v = item.data
		return nil
	case *string:
		*v = string(item.data)
		return nil
	default:
		return json.Unmarshal(item.data, dest)
	}
}

func (ms *MemoryStore) Delete(_ context.Context, keys ...string) error {
	ms.mutex.Lock()
	for _, key := range keys {
		delete(ms.data, key)
	}
	ms.mutex.Unlock()
	return nil
}

func (ms *MemoryStore) DeleteByPattern(_ context.Context, pattern string) error {
	ms.mutex.Lock()
	for key := range ms.data {
		if matchPattern(pattern, key) {
			delete(ms.data, key)
		}
	}
	ms.mutex.Unlock()
	return nil
}

func (ms *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	keys := make([]string, 0)
	for key, item := range ms.data {
		if item.expired() {
			continue
		}
		if matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (ms *MemoryStore) Exists(_ context.Context, keys ...string) (bool, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	for _, key := range keys {
		if item, ok := ms.data[key]; ok && !item.expired() {
			return true, nil
		}
	}
	return false, nil
}

func (ms *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close stops the cleanup goroutine.
func (ms *MemoryStore) Close() error {
	ms.cleanupTicker.Stop()
	close(ms.done)
	return nil
}

func (ms *MemoryStore) cleanupExpired() {
	for {
		select {
		case <-ms.done:
			return
		case <-ms.cleanupTicker.C:
			ms.mutex.Lock()
			for key, item := range ms.data {
				if item.expired() {
					delete(ms.data, key)
				}
			}
			ms.mutex.Unlock()
		}
	}
}

// matchPattern matches keys against redis-style glob patterns. Keys contain
// colons, which path.Match treats literally, so the translation is direct.
func matchPattern(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}
