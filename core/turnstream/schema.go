package turnstream

import (
	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-stage/core/conversations"
)

// Schemas returns the JSON schemas of the frame payloads and of the
// simulation state, keyed by name.
func Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return map[string]*jsonschema.Schema{
		string(FrameChunk): reflector.Reflect(&ChunkPayload{}),
		string(FrameDone):  reflector.Reflect(&DonePayload{}),
		string(FrameError): reflector.Reflect(&ErrorPayload{}),
		"state":            reflector.Reflect(&conversations.State{}),
	}
}
