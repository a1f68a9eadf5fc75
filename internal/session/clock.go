package session

import (
	"sync"
	"time"
)

// TimerHandle is a cancellable scheduled action. Stop is idempotent and
// only suppresses future firings; a callback already in flight runs to
// completion.
type TimerHandle interface {
	Stop()
}

// Scheduler creates cancellable timers. The machine owns every handle it
// creates and stops it on the transition that leaves the state which
// started it; tests substitute a manual implementation.
type Scheduler interface {
	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) TimerHandle
	// Every runs f repeatedly with period d until the handle is stopped.
	Every(d time.Duration, f func()) TimerHandle
}

// NewScheduler returns a Scheduler backed by the runtime clock.
func NewScheduler() Scheduler {
	return stdScheduler{}
}

type stdScheduler struct{}

func (stdScheduler) AfterFunc(d time.Duration, f func()) TimerHandle {
	return &stdTimer{t: time.AfterFunc(d, f)}
}

func (stdScheduler) Every(d time.Duration, f func()) TimerHandle {
	ticker := time.NewTicker(d)
	h := &stdTicker{done: make(chan struct{})}
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				f()
			}
		}
	}()
	return h
}

type stdTimer struct {
	t *time.Timer
}

func (h *stdTimer) Stop() {
	h.t.Stop()
}

type stdTicker struct {
	once sync.Once
	done chan struct{}
}

func (h *stdTicker) Stop() {
	h.once.Do(func() { close(h.done) })
}
