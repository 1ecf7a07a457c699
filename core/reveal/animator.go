// Package reveal implements the character-by-character typing effect used to
// present a finalized turn.
package reveal

import (
	"sync"
	"time"

	"github.com/koscakluka/ema-stage/core/clock"
)

// DefaultInterval is the time between two revealed characters.
const DefaultInterval = 14 * time.Millisecond

// Animator drains queued text into a visible buffer one rune per tick.
//
// Animator is safe for concurrent use. The render callback is called without
// the internal lock held, from whichever goroutine the clock uses to fire
// timers.
type Animator struct {
	mu sync.Mutex

	clock    clock.Clock
	interval time.Duration
	onRender func(visible string)

	queue   []rune
	visible []rune
	waiters []chan struct{}

	timer      clock.Timer
	generation uint64
}

type AnimatorOption func(*Animator)

// WithInterval overrides the per-character tick interval.
func WithInterval(interval time.Duration) AnimatorOption {
	return func(a *Animator) {
		if interval > 0 {
			a.interval = interval
		}
	}
}

// WithRenderCallback sets the function called with the full visible text
// after every revealed character and after a reset.
func WithRenderCallback(onRender func(visible string)) AnimatorOption {
	return func(a *Animator) {
		a.onRender = onRender
	}
}

func New(clk clock.Clock, opts ...AnimatorOption) *Animator {
	if clk == nil {
		clk = clock.Real()
	}
	a := &Animator{
		clock:    clk,
		interval: DefaultInterval,
		onRender: func(string) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enqueue appends text to the reveal queue and starts ticking if the
// animator was idle.
func (a *Animator) Enqueue(text string) {
	if text == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.queue = append(a.queue, []rune(text)...)
	if a.timer == nil {
		gen := a.generation
		a.timer = a.clock.Every(a.interval, func() { a.tick(gen) })
	}
}

// Drain returns a channel that is closed once the queue has been fully
// revealed or the animator is reset. When nothing is queued the returned
// channel is already closed.
func (a *Animator) Drain() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	done := make(chan struct{})
	if a.timer == nil && len(a.queue) == 0 {
		close(done)
		return done
	}
	a.waiters = append(a.waiters, done)
	return done
}

// Reset drops queued and visible text, stops ticking and releases every
// pending Drain caller.
func (a *Animator) Reset() {
	a.mu.Lock()
	a.queue = nil
	a.visible = nil
	waiters := a.stopLocked()
	a.mu.Unlock()

	a.onRender("")
	release(waiters)
}

// Visible returns the text revealed so far.
func (a *Animator) Visible() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return string(a.visible)
}

// Text returns the revealed text followed by the text still queued.
func (a *Animator) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return string(a.visible) + string(a.queue)
}

// Idle reports whether the animator has no running timer.
func (a *Animator) Idle() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer == nil
}

// Pending returns the number of queued runes not yet revealed.
func (a *Animator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

func (a *Animator) tick(gen uint64) {
	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		return
	}

	if len(a.queue) == 0 {
		waiters := a.stopLocked()
		a.mu.Unlock()
		release(waiters)
		return
	}

	a.visible = append(a.visible, a.queue[0])
	a.queue = a.queue[1:]
	visible := string(a.visible)

	var waiters []chan struct{}
	if len(a.queue) == 0 {
		waiters = a.stopLocked()
	}
	a.mu.Unlock()

	a.onRender(visible)
	release(waiters)
}

func (a *Animator) stopLocked() []chan struct{} {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.generation++

	waiters := a.waiters
	a.waiters = nil
	return waiters
}

func release(waiters []chan struct{}) {
	for _, w := range waiters {
		close(w)
	}
}
