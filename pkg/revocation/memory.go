package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It is only correct for a single
// instance and forgets everything on restart.
type MemoryStore struct {
	items map[string]int64 // jti -> expiry in unix nanos
	mu    sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryStore starts a store whose sweeper purges expired entries every
// sweepInterval. A non-positive interval disables the sweeper.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	return newMemoryStore(sweepInterval, time.Now)
}

func newMemoryStore(sweepInterval time.Duration, now func() time.Time) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]int64),
		now:   now,
		stop:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.startGC(sweepInterval)
	}
	return s
}

func (s *MemoryStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" || !expiresAt.After(s.now()) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// keep the later expiry if the jti is revoked twice
	if existing, ok := s.items[jti]; ok && existing >= expiresAt.UnixNano() {
		return nil
	}
	s.items[jti] = expiresAt.UnixNano()
	return nil
}

func (s *MemoryStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiration, found := s.items[jti]
	if !found {
		return false, nil
	}
	return s.now().UnixNano() <= expiration, nil
}

// Len returns the number of entries, expired or not, still held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep drops every expired entry.
func (s *MemoryStore) Sweep() {
	now := s.now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.items {
		if now > v {
			delete(s.items, k)
		}
	}
}

// Close stops the sweeper.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) startGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
