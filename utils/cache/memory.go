package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryLocker is the single-instance lock used when Redis is unavailable
type MemoryLocker struct {
	mu    sync.Mutex // pairs the ownership check with the delete in Release
	items *gocache.Cache
}

// NewMemoryLocker creates an in-process locker. Expired locks are swept every minute.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{items: gocache.New(time.Minute, time.Minute)}
}

// Acquire returns an owner token, or "" while another caller holds key
func (m *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	// Add fails when an unexpired item exists, which makes it a test-and-set
	if err := m.items.Add(key, token, ttl); err != nil {
		return "", nil
	}
	return token, nil
}

// Release drops the lock if token still owns it. A holder whose lock expired
// and was taken over leaves the new owner in place.
func (m *MemoryLocker) Release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.items.Get(key); ok && owner == token {
		m.items.Delete(key)
	}
	return nil
}
