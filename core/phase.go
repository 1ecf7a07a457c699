package orchestration

// Phase is the state of the turn finalizer.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseSending       Phase = "sending"
	PhaseStreaming     Phase = "streaming"
	PhaseAwaitingVoice Phase = "awaiting_voice"
	PhaseRevealing     Phase = "revealing"
	PhaseCommitted     Phase = "committed"
	PhaseAborted       Phase = "aborted"
)

// InFlight reports whether a turn is being processed in this phase.
func (p Phase) InFlight() bool {
	switch p {
	case PhaseSending, PhaseStreaming, PhaseAwaitingVoice, PhaseRevealing:
		return true
	default:
		return false
	}
}
