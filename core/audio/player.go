package audio

import (
	"context"
	"errors"
	"sync"
)

// ErrPlaybackBlocked is returned by players whose output refuses to start.
var ErrPlaybackBlocked = errors.New("audio playback blocked")

// Player starts playback of decoded clips.
type Player interface {
	Play(ctx context.Context, clip *Clip, volume float64) (Playback, error)
}

// Playback is a handle to a single clip being played.
type Playback interface {
	// Done is closed when the clip finished playing or was stopped.
	Done() <-chan struct{}
	Stop()
}

// Handle is a Playback whose completion is driven by an output backend.
type Handle struct {
	done   chan struct{}
	once   sync.Once
	onStop func()
}

// NewHandle returns a Handle that calls onStop when stopped early.
func NewHandle(onStop func()) *Handle {
	if onStop == nil {
		onStop = func() {}
	}
	return &Handle{done: make(chan struct{}), onStop: onStop}
}

func (h *Handle) Done() <-chan struct{} { return h.done }

// Stop interrupts the playback.
func (h *Handle) Stop() { h.finish(true) }

// Finish marks the playback as completed naturally.
func (h *Handle) Finish() { h.finish(false) }

func (h *Handle) finish(stopped bool) {
	h.once.Do(func() {
		if stopped {
			h.onStop()
		}
		close(h.done)
	})
}

// Silent is a Player without an output device. Every playback completes
// immediately.
type Silent struct{}

func (Silent) Play(_ context.Context, clip *Clip, _ float64) (Playback, error) {
	if clip.Empty() {
		return nil, ErrEmptyClip
	}

	handle := NewHandle(nil)
	handle.Finish()
	return handle, nil
}
