package events

// KindStreamChunk identifies a streamed text delta.
const KindStreamChunk Kind = "stream.chunk"

// StreamChunk carries a streamed text delta.
type StreamChunk struct {
	Base
	RunID string
	Text  string
}

// NewStreamChunk creates a stream chunk event.
func NewStreamChunk(runID, text string) StreamChunk {
	return StreamChunk{Base: NewBase(KindStreamChunk), RunID: runID, Text: text}
}
