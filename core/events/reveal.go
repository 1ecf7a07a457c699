package events

// KindRevealDrained identifies a fully revealed line.
const KindRevealDrained Kind = "reveal.drained"

// RevealDrained marks a fully revealed line.
type RevealDrained struct {
	Base
	RunID string
}

// NewRevealDrained creates a reveal drained event.
func NewRevealDrained(runID string) RevealDrained {
	return RevealDrained{Base: NewBase(KindRevealDrained), RunID: runID}
}
