// Package clock abstracts timers for the timed playback components so they
// can run on wall-clock time in production and on virtual time in tests.
package clock

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing again. It reports whether the
	// call stopped the timer, false if it already expired or was stopped.
	Stop() bool
}

// Clock schedules callbacks.
//
// Callbacks may run on a different goroutine than the caller; components are
// expected to guard their own state.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Every calls f every d until the returned timer is stopped.
	Every(d time.Duration, f func()) Timer
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Every(d time.Duration, f func()) Timer {
	t := &realTicker{ticker: time.NewTicker(d), done: make(chan struct{})}
	go t.run(f)
	return t
}

type realTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTicker) run(f func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// NOTE: Stop can race with a tick that is already being delivered,
			// callers drop stale ticks themselves
			select {
			case <-t.done:
				return
			default:
			}
			f()
		}
	}
}

func (t *realTicker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
