package events

const (
	// KindTurnStarted identifies submission of a turn.
	KindTurnStarted Kind = "turn_state.started"
	// KindTurnStreaming identifies the start of frame reading.
	KindTurnStreaming Kind = "turn_state.streaming"
	// KindTurnRevealing identifies the start of the final reveal.
	KindTurnRevealing Kind = "turn_state.revealing"
	// KindTurnCommitted identifies commit of the final state.
	KindTurnCommitted Kind = "turn_state.committed"
	// KindTurnAborted identifies an aborted turn.
	KindTurnAborted Kind = "turn_state.aborted"
)

// TurnStarted marks submission of a scammer message.
type TurnStarted struct {
	Base
	RunID   string
	Message string
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(runID, message string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), RunID: runID, Message: message}
}

// TurnStreaming marks the start of frame reading.
type TurnStreaming struct {
	Base
	RunID string
}

// NewTurnStreaming creates a turn streaming event.
func NewTurnStreaming(runID string) TurnStreaming {
	return TurnStreaming{Base: NewBase(KindTurnStreaming), RunID: runID}
}

// TurnRevealing marks the start of the final reveal of Text.
type TurnRevealing struct {
	Base
	RunID string
	Text  string
}

// NewTurnRevealing creates a turn revealing event.
func NewTurnRevealing(runID, text string) TurnRevealing {
	return TurnRevealing{Base: NewBase(KindTurnRevealing), RunID: runID, Text: text}
}

// TurnCommitted marks commit of the final state.
type TurnCommitted struct {
	Base
	RunID     string
	TurnCount int
}

// NewTurnCommitted creates a turn committed event.
func NewTurnCommitted(runID string, turnCount int) TurnCommitted {
	return TurnCommitted{Base: NewBase(KindTurnCommitted), RunID: runID, TurnCount: turnCount}
}

// TurnAborted marks an aborted turn. Err is nil for turns aborted by a
// reset.
type TurnAborted struct {
	Base
	RunID string
	Err   error
}

// NewTurnAborted creates a turn aborted event.
func NewTurnAborted(runID string, err error) TurnAborted {
	return TurnAborted{Base: NewBase(KindTurnAborted), RunID: runID, Err: err}
}
