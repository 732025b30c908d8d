package resilience

import (
	"context"
	"sync"
	"time"
)

// SlotConfig configures a Slot.
type SlotConfig struct {
	// Capacity is the number of operations allowed to hold the slot at once.
	// Default: 1
	Capacity int

	// MaxWait bounds how long Acquire waits for a free slot.
	// Default: 0 (wait until the context is done)
	MaxWait time.Duration
}

// Slot limits how many operations run at the same time. Waiters are
// released as holders call Release.
type Slot struct {
	config SlotConfig
	sem    chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
	waiting   int
	acquired  int64
	rejected  int64
}

// NewSlot creates a run slot.
func NewSlot(config SlotConfig) *Slot {
	if config.Capacity <= 0 {
		config.Capacity = 1
	}
	return &Slot{
		config: config,
		sem:    make(chan struct{}, config.Capacity),
	}
}

// Acquire blocks until a slot is free, the context is done, or MaxWait
// passes.
func (s *Slot) Acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		s.enter()
		return nil
	default:
	}

	s.mu.Lock()
	s.waiting++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.waiting--
		s.mu.Unlock()
	}()

	var expired <-chan time.Time
	if s.config.MaxWait > 0 {
		timer := time.NewTimer(s.config.MaxWait)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case s.sem <- struct{}{}:
		s.enter()
		return nil
	case <-expired:
		s.mu.Lock()
		s.rejected++
		s.mu.Unlock()
		return ErrSlotBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free.
func (s *Slot) TryAcquire() bool {
	select {
	case s.sem <- struct{}{}:
		s.enter()
		return true
	default:
		return false
	}
}

func (s *Slot) enter() {
	s.mu.Lock()
	s.active++
	s.acquired++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.mu.Unlock()
}

// Release frees a slot taken by Acquire or TryAcquire.
func (s *Slot) Release() {
	select {
	case <-s.sem:
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	default:
	}
}

// Execute runs op while holding a slot.
func (s *Slot) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := s.Acquire(ctx); err != nil {
		return err
	}
	defer s.Release()
	return op(ctx)
}

// Metrics returns current slot statistics.
func (s *Slot) Metrics() SlotMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SlotMetrics{
		Active:    s.active,
		MaxActive: s.maxActive,
		Waiting:   s.waiting,
		Capacity:  s.config.Capacity,
		Acquired:  s.acquired,
		Rejected:  s.rejected,
	}
}

// SlotMetrics contains slot statistics.
type SlotMetrics struct {
	Active    int
	MaxActive int
	Waiting   int
	Capacity  int
	Acquired  int64
	Rejected  int64
}
