package events

import "time"

const (
	// KindVoiceStarted identifies the start of voice playback.
	KindVoiceStarted Kind = "voice.started"
	// KindVoiceSkipped identifies a line presented without voice.
	KindVoiceSkipped Kind = "voice.skipped"
)

// VoiceStarted marks the start of voice playback.
type VoiceStarted struct {
	Base
	Key      string
	Duration time.Duration
}

// NewVoiceStarted creates a voice started event.
func NewVoiceStarted(key string, duration time.Duration) VoiceStarted {
	return VoiceStarted{Base: NewBase(KindVoiceStarted), Key: key, Duration: duration}
}

// VoiceSkipped marks a line presented without voice. Err is nil when voice
// was not attempted.
type VoiceSkipped struct {
	Base
	Key    string
	Reason string
	Err    error
}

// NewVoiceSkipped creates a voice skipped event.
func NewVoiceSkipped(key, reason string, err error) VoiceSkipped {
	return VoiceSkipped{Base: NewBase(KindVoiceSkipped), Key: key, Reason: reason, Err: err}
}
