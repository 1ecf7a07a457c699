package clock

import (
	"sync"
	"time"
)

// Virtual is a manually advanced Clock. Timers fire synchronously from
// Advance, in deadline order, on the goroutine that calls Advance.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	timers []*virtualTimer
	seq    uint64
}

type virtualTimer struct {
	clock    *Virtual
	deadline time.Time
	period   time.Duration
	f        func()
	seq      uint64
	stopped  bool
}

// NewVirtual returns a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	return v.add(d, 0, f)
}

func (v *Virtual) Every(d time.Duration, f func()) Timer {
	if d <= 0 {
		d = time.Nanosecond
	}
	return v.add(d, d, f)
}

func (v *Virtual) add(d, period time.Duration, f func()) *virtualTimer {
	v.mu.Lock()
	defer v.mu.Unlock()

	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{
		clock:    v,
		deadline: v.now.Add(d),
		period:   period,
		f:        f,
		seq:      v.seq,
	}
	v.timers = append(v.timers, t)
	return t
}

// Advance moves the clock forward by d and fires every timer that becomes
// due, including timers armed by callbacks during the advance.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		next := v.nextDueLocked(target)
		if next == nil {
			v.now = target
			v.mu.Unlock()
			return
		}

		v.now = next.deadline
		if next.period > 0 {
			next.deadline = next.deadline.Add(next.period)
		} else {
			next.stopped = true
			v.removeLocked(next)
		}
		f := next.f
		v.mu.Unlock()

		f()
	}
}

// Pending returns the number of armed timers.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

func (v *Virtual) nextDueLocked(target time.Time) *virtualTimer {
	var next *virtualTimer
	for _, t := range v.timers {
		if t.deadline.After(target) {
			continue
		}
		if next == nil ||
			t.deadline.Before(next.deadline) ||
			(t.deadline.Equal(next.deadline) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (v *Virtual) removeLocked(timer *virtualTimer) {
	for i, t := range v.timers {
		if t == timer {
			v.timers = append(v.timers[:i], v.timers[i+1:]...)
			return
		}
	}
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	t.clock.removeLocked(t)
	return true
}
