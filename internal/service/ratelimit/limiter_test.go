package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestReserveSlotSpacing(t *testing.T) {
	l := New(100 * time.Millisecond)

	const n = 20
	var (
		mu     sync.Mutex
		delays []time.Duration
		wg     sync.WaitGroup
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := l.ReserveSlot()
			mu.Lock()
			delays = append(delays, d)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(delays) != n {
		t.Fatalf("expected %d reservations, got %d", n, len(delays))
	}

	// The 20th dispatch must land no earlier than 19 intervals after the
	// first. Reservation happens instantly, so the largest returned wait
	// carries the whole spacing.
	var max time.Duration
	for _, d := range delays {
		if d > max {
			max = d
		}
	}
	if want := 19 * 100 * time.Millisecond; max < want-20*time.Millisecond {
		t.Fatalf("max wait %v, want at least ~%v", max, want)
	}
}

func TestReserveSlotFirstIsImmediate(t *testing.T) {
	l := New(100 * time.Millisecond)
	if d := l.ReserveSlot(); d > 10*time.Millisecond {
		t.Fatalf("first reservation should be immediate, got %v", d)
	}
	if d := l.ReserveSlot(); d <= 0 {
		t.Fatalf("second reservation should wait, got %v", d)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(time.Second)
	l.ReserveSlot() // consume the free slot

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := l.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 8 * time.Second}

	prev := time.Duration(0)
	for attempt := 0; attempt < 6; attempt++ {
		d := b.Delay(attempt)
		if d < prev/2 {
			t.Fatalf("attempt %d: delay %v went backwards from %v", attempt, d, prev)
		}
		// cap plus 20% jitter headroom
		if d > 8*time.Second+8*time.Second/5 {
			t.Fatalf("attempt %d: delay %v exceeds cap", attempt, d)
		}
		prev = d
	}

	if d := b.Delay(3); d < 8*time.Second {
		t.Fatalf("attempt 3 should hit the cap, got %v", d)
	}
}
