package events

import "time"

const (
	// KindCueScheduled identifies an armed sound effect.
	KindCueScheduled Kind = "cue.scheduled"
	// KindCueFired identifies a sound effect that started playing.
	KindCueFired Kind = "cue.fired"
)

// CueScheduled marks a sound effect armed to play after Delay.
type CueScheduled struct {
	Base
	Tag   string
	Delay time.Duration
}

// NewCueScheduled creates a cue scheduled event.
func NewCueScheduled(tag string, delay time.Duration) CueScheduled {
	return CueScheduled{Base: NewBase(KindCueScheduled), Tag: tag, Delay: delay}
}

// CueFired marks a sound effect that started playing.
type CueFired struct {
	Base
	Tag string
}

// NewCueFired creates a cue fired event.
func NewCueFired(tag string) CueFired {
	return CueFired{Base: NewBase(KindCueFired), Tag: tag}
}
