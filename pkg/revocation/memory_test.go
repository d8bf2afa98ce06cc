package revocation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestMemoryStore_RevokeAndExpire(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemoryStore(0, clock.now)
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", clock.now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked() = %v, %v; want true", revoked, err)
	}
	if revoked, _ := store.IsRevoked(ctx, "unknown"); revoked {
		t.Error("unknown jti must not be revoked")
	}

	clock.advance(2 * time.Hour)
	if revoked, _ := store.IsRevoked(ctx, "jti-1"); revoked {
		t.Error("entry should be ignored after its expiry")
	}

	store.Sweep()
	if store.Len() != 0 {
		t.Errorf("Len() after sweep = %d, want 0", store.Len())
	}
}

func TestMemoryStore_RevokeIsIdempotent(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemoryStore(0, clock.now)
	ctx := context.Background()
	exp := clock.now().Add(time.Hour)

	for i := 0; i < 3; i++ {
		if err := store.Revoke(ctx, "jti-1", exp); err != nil {
			t.Fatalf("Revoke() #%d error = %v", i, err)
		}
	}
	// an earlier expiry must not shorten an existing revocation
	if err := store.Revoke(ctx, "jti-1", clock.now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	clock.advance(30 * time.Minute)

	if revoked, _ := store.IsRevoked(ctx, "jti-1"); !revoked {
		t.Error("jti should still be revoked")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStore_IgnoresExpiredAndEmpty(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemoryStore(0, clock.now)
	ctx := context.Background()

	if err := store.Revoke(ctx, "", clock.now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke(empty) error = %v", err)
	}
	if err := store.Revoke(ctx, "old", clock.now().Add(-time.Second)); err != nil {
		t.Fatalf("Revoke(expired) error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	defer store.Close()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := fmt.Sprintf("jti-%d", i%10)
			_ = store.Revoke(ctx, jti, exp)
			if revoked, _ := store.IsRevoked(ctx, jti); !revoked {
				t.Errorf("%s should be revoked", jti)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 10 {
		t.Errorf("Len() = %d, want 10", store.Len())
	}
}
