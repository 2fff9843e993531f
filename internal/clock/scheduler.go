package clock

import (
	"sync"
	"time"
)

// Scheduler runs a callback on a fixed period until cancelled.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler drives callbacks from a time.Ticker goroutine.
type TickerScheduler struct{}

// Every starts a goroutine invoking fn on each tick.
func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler records callbacks and only runs them when Tick is called.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]func()
}

// NewManualScheduler creates an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{entries: make(map[int]func())}
}

// Every registers fn; it runs on each call to Tick until cancelled. The
// interval is ignored: each Tick stands for one period.
func (s *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.entries[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
	}
}

// Tick runs every registered callback once, synchronously.
func (s *ManualScheduler) Tick() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.entries))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.entries[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Active returns the number of registered callbacks.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
