// Package turnstream reads a simulation turn streamed as server-sent event
// frames.
//
// A turn is streamed as any number of `chunk` frames carrying text deltas,
// followed by a single `done` frame carrying the authoritative simulation
// state. An `error` frame marks the turn as failed.
package turnstream

import (
	"encoding/json"
	"strings"

	"github.com/koscakluka/ema-stage/core/conversations"
)

type FrameKind string

const (
	FrameMessage FrameKind = "message"
	FrameChunk   FrameKind = "chunk"
	FrameDone    FrameKind = "done"
	FrameError   FrameKind = "error"
)

type ChunkPayload struct {
	Text string `json:"text"`
}

type DonePayload struct {
	State *conversations.State `json:"state,omitempty"`
}

type ErrorPayload struct {
	Detail string `json:"detail,omitempty"`
}

// Frame is one decoded event block.
type Frame struct {
	Kind FrameKind
	// Data is the joined data lines of the block.
	Data string

	Chunk *ChunkPayload
	Done  *DonePayload
	Error *ErrorPayload

	// Malformed is set when Data is not valid JSON for the frame kind. Raw
	// then holds the undecoded data.
	Malformed bool
	Raw       string
}

// ParseFrame decodes one event block. It reports false for blocks without
// data lines.
func ParseFrame(block string) (Frame, bool) {
	frame := Frame{Kind: FrameMessage}
	var data []string

	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			if kind := strings.TrimSpace(strings.TrimPrefix(line, "event:")); kind != "" {
				frame.Kind = FrameKind(kind)
			}
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimLeft(strings.TrimPrefix(line, "data:"), " \t"))
		}
	}

	if len(data) == 0 {
		return Frame{}, false
	}
	frame.Data = strings.Join(data, "\n")

	var target any
	switch frame.Kind {
	case FrameChunk:
		frame.Chunk = &ChunkPayload{}
		target = frame.Chunk
	case FrameDone:
		frame.Done = &DonePayload{}
		target = frame.Done
	case FrameError:
		frame.Error = &ErrorPayload{}
		target = frame.Error
	default:
		target = &json.RawMessage{}
	}

	if err := json.Unmarshal([]byte(frame.Data), target); err != nil {
		logger.Debug("malformed frame payload", "kind", frame.Kind, "error", err)
		frame.Malformed = true
		frame.Raw = frame.Data
		switch frame.Kind {
		case FrameChunk:
			frame.Chunk = &ChunkPayload{}
		case FrameDone:
			frame.Done = &DonePayload{}
		case FrameError:
			frame.Error = &ErrorPayload{}
		}
	}

	return frame, true
}
