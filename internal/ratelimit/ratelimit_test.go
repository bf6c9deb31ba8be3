package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(maxAttempts int) (*Limiter, *time.Time) {
	l := New(15*time.Minute, maxAttempts, 30*time.Minute, 30*time.Minute, nil)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheckAndRecordAllowsUpToMax(t *testing.T) {
	l, _ := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		res := l.CheckAndRecord("1.2.3.4")
		if !res.Allowed {
			t.Fatalf("attempt %d denied, want allowed", i+1)
		}
		if res.Remaining != 4-i {
			t.Errorf("attempt %d remaining = %d, want %d", i+1, res.Remaining, 4-i)
		}
	}

	res := l.CheckAndRecord("1.2.3.4")
	if res.Allowed {
		t.Error("attempt 6 allowed, want denied")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > 15*time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 15m]", res.RetryAfter)
	}
}

func TestDeniedAttemptsDoNotExtendWindow(t *testing.T) {
	l, now := newTestLimiter(2)

	l.CheckAndRecord("a")
	l.CheckAndRecord("a")

	// Hammering while denied must not push the window forward.
	for i := 0; i < 10; i++ {
		*now = now.Add(time.Minute)
		if res := l.CheckAndRecord("a"); res.Allowed {
			t.Fatalf("attempt during window allowed at +%dm", i+1)
		}
	}

	// 16 minutes after windowStart the window has expired.
	*now = now.Add(6 * time.Minute)
	if res := l.CheckAndRecord("a"); !res.Allowed {
		t.Error("attempt after window expiry denied, want allowed")
	}
}

func TestWindowResetRestoresBudget(t *testing.T) {
	l, now := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		l.CheckAndRecord("a")
	}
	if res := l.CheckAndRecord("a"); res.Allowed {
		t.Fatal("over-budget attempt allowed")
	}

	*now = now.Add(16 * time.Minute)

	res := l.CheckAndRecord("a")
	if !res.Allowed {
		t.Fatal("attempt in fresh window denied")
	}
	if res.Remaining != 2 {
		t.Errorf("Remaining = %d, want 2 after reset", res.Remaining)
	}
}

func TestClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1)

	if res := l.CheckAndRecord("a"); !res.Allowed {
		t.Fatal("first attempt for a denied")
	}
	if res := l.CheckAndRecord("a"); res.Allowed {
		t.Fatal("second attempt for a allowed")
	}
	if res := l.CheckAndRecord("b"); !res.Allowed {
		t.Error("first attempt for b denied, clients should be independent")
	}
}

func TestSweepRemovesIdleEntries(t *testing.T) {
	l, now := newTestLimiter(5)

	l.CheckAndRecord("idle")
	*now = now.Add(20 * time.Minute)
	l.CheckAndRecord("active")

	// idle is 20m old, active is fresh; TTL is 30m so neither goes yet.
	if removed := l.sweep(*now); removed != 0 {
		t.Errorf("sweep removed %d, want 0", removed)
	}

	*now = now.Add(15 * time.Minute)
	if removed := l.sweep(*now); removed != 1 {
		t.Errorf("sweep removed %d, want 1", removed)
	}
	if l.size() != 1 {
		t.Errorf("size = %d, want 1", l.size())
	}
}

func TestCheckAndRecordConcurrent(t *testing.T) {
	l := New(15*time.Minute, 5, 30*time.Minute, 30*time.Minute, nil)

	var wg sync.WaitGroup
	allowed := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.CheckAndRecord("shared").Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	n := 0
	for ok := range allowed {
		if ok {
			n++
		}
	}
	if n != 5 {
		t.Errorf("allowed = %d, want exactly 5 under concurrency", n)
	}
}
