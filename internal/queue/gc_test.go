package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubPurger struct {
	retention time.Duration
	purged    int
	err       error
	calls     int
}

func (s *stubPurger) PurgeOlderThan(_ context.Context, retention time.Duration) (int, error) {
	s.calls++
	s.retention = retention
	return s.purged, s.err
}

func TestGarbageCollectorSweep(t *testing.T) {
	t.Parallel()

	t.Run("nil purger is a no-op", func(t *testing.T) {
		t.Parallel()
		gc := NewGarbageCollector(nil, time.Minute, 24*time.Hour, nil)
		if err := gc.sweep(context.Background()); err != nil {
			t.Fatalf("sweep: %v", err)
		}
	})

	t.Run("passes retention through", func(t *testing.T) {
		t.Parallel()
		purger := &stubPurger{purged: 3}
		gc := NewGarbageCollector(purger, time.Minute, 24*time.Hour, nil)
		if err := gc.sweep(context.Background()); err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if purger.calls != 1 {
			t.Fatalf("calls = %d, want 1", purger.calls)
		}
		if purger.retention != 24*time.Hour {
			t.Fatalf("retention = %v, want 24h", purger.retention)
		}
	})

	t.Run("propagates purge failure", func(t *testing.T) {
		t.Parallel()
		purger := &stubPurger{err: errors.New("broker gone")}
		gc := NewGarbageCollector(purger, time.Minute, time.Hour, nil)
		if err := gc.sweep(context.Background()); err == nil {
			t.Fatal("expected sweep error")
		}
	})
}

func TestGarbageCollectorStartHonorsContext(t *testing.T) {
	t.Parallel()
	gc := NewGarbageCollector(&stubPurger{}, 24*time.Hour, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gc.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Start = %v, want context.Canceled", err)
	}
}
