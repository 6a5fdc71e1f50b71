package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalGate_SecondAcquireFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := NewLocalGate()

	ok, err := g.Acquire(ctx, CompleteKey("t1"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}
	ok, _ = g.Acquire(ctx, CompleteKey("t1"), time.Minute)
	if ok {
		t.Error("Expected second Acquire of the same key to fail")
	}
	ok, _ = g.Acquire(ctx, CompleteKey("t2"), time.Minute)
	if !ok {
		t.Error("Expected a different key to be independent")
	}

	_ = g.Release(ctx, CompleteKey("t1"))
	ok, _ = g.Acquire(ctx, CompleteKey("t1"), time.Minute)
	if !ok {
		t.Error("Expected Acquire to succeed after Release")
	}
}

func TestLocalGate_Expires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := NewLocalGate()

	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	_, _ = g.Acquire(ctx, RescheduleKey, time.Minute)
	now = now.Add(59 * time.Second)
	if ok, _ := g.Acquire(ctx, RescheduleKey, time.Minute); ok {
		t.Error("Expected marker to still be held before TTL")
	}
	now = now.Add(2 * time.Second)
	if ok, _ := g.Acquire(ctx, RescheduleKey, time.Minute); !ok {
		t.Error("Expected marker to expire after TTL")
	}
}

func TestLocalGate_ConcurrentAcquireGrantsOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := NewLocalGate()

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.Acquire(ctx, RescheduleKey, time.Minute); ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if granted.Load() != 1 {
		t.Errorf("Expected exactly one holder, got %d", granted.Load())
	}
}

func TestLocalGate_ReleaseFreeKey(t *testing.T) {
	t.Parallel()
	if err := NewLocalGate().Release(context.Background(), "missing"); err != nil {
		t.Errorf("Release of free key: %v", err)
	}
}
