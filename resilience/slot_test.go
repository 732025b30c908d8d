package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewSlot(t *testing.T) {
	s := NewSlot(SlotConfig{})

	if s.Metrics().Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", s.Metrics().Capacity)
	}
}

func TestSlot_TryAcquire(t *testing.T) {
	s := NewSlot(SlotConfig{})

	if !s.TryAcquire() {
		t.Fatal("first TryAcquire() = false")
	}
	if s.TryAcquire() {
		t.Error("second TryAcquire() = true with capacity 1")
	}
	s.Release()
	if !s.TryAcquire() {
		t.Error("TryAcquire() after Release = false")
	}
}

func TestSlot_AcquireWaits(t *testing.T) {
	s := NewSlot(SlotConfig{})
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Release()
	}()

	if err := s.Acquire(context.Background()); err != nil {
		t.Errorf("waiting Acquire() error = %v", err)
	}
}

func TestSlot_AcquireMaxWait(t *testing.T) {
	s := NewSlot(SlotConfig{MaxWait: 10 * time.Millisecond})
	_ = s.Acquire(context.Background())

	if err := s.Acquire(context.Background()); !errors.Is(err, ErrSlotBusy) {
		t.Errorf("Acquire() error = %v, want ErrSlotBusy", err)
	}
	if s.Metrics().Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", s.Metrics().Rejected)
	}
}

func TestSlot_AcquireContextCancelled(t *testing.T) {
	s := NewSlot(SlotConfig{})
	_ = s.Acquire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want DeadlineExceeded", err)
	}
}

func TestSlot_ExecuteSerializes(t *testing.T) {
	s := NewSlot(SlotConfig{})

	var running, overlap atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Execute(context.Background(), func(context.Context) error {
				if running.Add(1) > 1 {
					overlap.Add(1)
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if overlap.Load() != 0 {
		t.Errorf("overlapping executions = %d, want 0", overlap.Load())
	}
	m := s.Metrics()
	if m.MaxActive != 1 || m.Acquired != 8 || m.Active != 0 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestSlot_ReleaseWithoutAcquire(t *testing.T) {
	s := NewSlot(SlotConfig{})
	s.Release()
	if s.Metrics().Active != 0 {
		t.Errorf("Active = %d, want 0", s.Metrics().Active)
	}
}
