package cooldown

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"xauron/pkg/model"
)

func TestKey(t *testing.T) {
	if got := Key("xauusd", model.SideBuy); got != "XAUUSD_BUY" {
		t.Errorf("Expected XAUUSD_BUY, got %s", got)
	}
}

func TestMemoryStoreWindow(t *testing.T) {
	s := NewMemoryStore(DefaultWindow)
	ctx := context.Background()
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	steps := []struct {
		key   string
		at    time.Duration
		allow bool
	}{
		{"XAUUSD_BUY", 0, true},
		{"XAUUSD_BUY", 10 * time.Second, false},
		{"XAUUSD_SELL", 10 * time.Second, true}, // other side is independent
		{"BTCUSDT_BUY", 20 * time.Second, true},
		{"XAUUSD_BUY", 299 * time.Second, false},
		{"XAUUSD_BUY", 300 * time.Second, true},
		{"XAUUSD_BUY", 301 * time.Second, false}, // window restarts from last alert
	}

	for i, st := range steps {
		got, err := s.Allow(ctx, st.key, t0.Add(st.at))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != st.allow {
			t.Errorf("step %d (%s at %v): expected %v, got %v", i, st.key, st.at, st.allow, got)
		}
	}

	s.Prune(t0.Add(400 * time.Second))
	if s.Len() != 1 {
		t.Errorf("Expected 1 key after prune, got %d", s.Len())
	}
}

func TestMemoryStoreRelease(t *testing.T) {
	s := NewMemoryStore(DefaultWindow)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	if ok, _ := s.Allow(ctx, "XAUUSD_BUY", now); !ok {
		t.Fatal("First claim should succeed")
	}
	if err := s.Release(ctx, "XAUUSD_BUY"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Allow(ctx, "XAUUSD_BUY", now.Add(time.Second)); !ok {
		t.Error("Claim after release should succeed inside the window")
	}
	if ok, _ := s.Allow(ctx, "XAUUSD_BUY", now.Add(2*time.Second)); ok {
		t.Error("Second claim should be blocked again")
	}

	// Releasing an unknown key is a no-op
	if err := s.Release(ctx, "EURUSD_SELL"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestMemoryStoreConcurrentClaim(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Now()

	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Allow(context.Background(), "XAUUSD_SELL", now); ok {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("Expected exactly one claim, got %d", allowed)
	}
}

// Requires a reachable Redis; set REDIS_ADDR to run.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := Dial(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer s.Close()

	key := "test_" + uuid.NewString()
	defer s.client.Del(ctx, s.prefix+key)

	if ok, err := s.Allow(ctx, key, time.Now()); err != nil || !ok {
		t.Fatalf("First claim should succeed: %v %v", ok, err)
	}
	if ok, _ := s.Allow(ctx, key, time.Now()); ok {
		t.Error("Second claim inside the window should fail")
	}

	if err := s.Release(ctx, key); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := s.Allow(ctx, key, time.Now()); !ok {
		t.Error("Claim after release should succeed")
	}

	time.Sleep(600 * time.Millisecond)
	if ok, _ := s.Allow(ctx, key, time.Now()); !ok {
		t.Error("Claim after expiry should succeed")
	}
}
