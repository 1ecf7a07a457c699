package turnstream

import "testing"

func TestParseFrame(t *testing.T) {
	testCases := []struct {
		name      string
		block     string
		ok        bool
		kind      FrameKind
		data      string
		malformed bool
	}{
		{name: "chunk", block: "event: chunk\ndata: {\"text\": \"Hel\"}", ok: true, kind: FrameChunk, data: `{"text": "Hel"}`},
		{name: "default kind", block: "data: {}", ok: true, kind: FrameMessage, data: "{}"},
		{name: "multi line data", block: "event: done\ndata: {\"state\":\ndata:   null}", ok: true, kind: FrameDone, data: "{\"state\":\nnull}"},
		{name: "no data", block: "event: chunk\n: comment", ok: false},
		{name: "malformed", block: "event: error\ndata: not json", ok: true, kind: FrameError, data: "not json", malformed: true},
		{name: "blank lines skipped", block: "\nevent: chunk\n\ndata: {\"text\":\"a\"}\n", ok: true, kind: FrameChunk, data: `{"text":"a"}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			frame, ok := ParseFrame(testCase.block)
			if ok != testCase.ok {
				t.Fatalf("expected ok %v, got %v", testCase.ok, ok)
			}
			if !ok {
				return
			}
			if frame.Kind != testCase.kind {
				t.Fatalf("expected kind %q, got %q", testCase.kind, frame.Kind)
			}
			if frame.Data != testCase.data {
				t.Fatalf("expected data %q, got %q", testCase.data, frame.Data)
			}
			if frame.Malformed != testCase.malformed {
				t.Fatalf("expected malformed %v, got %v", testCase.malformed, frame.Malformed)
			}
			if frame.Malformed && frame.Raw != testCase.data {
				t.Fatalf("expected raw %q, got %q", testCase.data, frame.Raw)
			}
		})
	}
}

func TestParseFrameDecodesPayloads(t *testing.T) {
	chunk, _ := ParseFrame("event: chunk\ndata: {\"text\": \"Allô\"}")
	if chunk.Chunk == nil || chunk.Chunk.Text != "Allô" {
		t.Fatalf("expected chunk text %q, got %+v", "Allô", chunk.Chunk)
	}

	done, _ := ParseFrame("event: done\ndata: {\"state\": {\"turn_count\": 4, \"messages\": [{\"role\": \"victim\", \"content\": \"Oui\"}]}}")
	if done.Done == nil || done.Done.State == nil || done.Done.State.TurnCount != 4 {
		t.Fatalf("expected done state with turn count 4, got %+v", done.Done)
	}
	if len(done.Done.State.Messages) != 1 || done.Done.State.Messages[0].Content != "Oui" {
		t.Fatalf("unexpected messages %+v", done.Done.State.Messages)
	}

	failed, _ := ParseFrame("event: error\ndata: {\"detail\": \"LLM indisponible\"}")
	if failed.Error == nil || failed.Error.Detail != "LLM indisponible" {
		t.Fatalf("expected error detail, got %+v", failed.Error)
	}

	malformedChunk, _ := ParseFrame("event: chunk\ndata: {broken")
	if malformedChunk.Chunk == nil || malformedChunk.Chunk.Text != "" {
		t.Fatalf("expected malformed chunk to carry empty text, got %+v", malformedChunk.Chunk)
	}
}
