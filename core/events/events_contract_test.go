package events

import (
	"errors"
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "turn started", event: NewTurnStarted("run", "Bonjour"), expected: KindTurnStarted},
		{name: "turn streaming", event: NewTurnStreaming("run"), expected: KindTurnStreaming},
		{name: "turn revealing", event: NewTurnRevealing("run", "Oui ?"), expected: KindTurnRevealing},
		{name: "turn committed", event: NewTurnCommitted("run", 3), expected: KindTurnCommitted},
		{name: "turn aborted", event: NewTurnAborted("run", errors.New("boom")), expected: KindTurnAborted},
		{name: "stream chunk", event: NewStreamChunk("run", "Hel"), expected: KindStreamChunk},
		{name: "voice started", event: NewVoiceStarted("key", time.Second), expected: KindVoiceStarted},
		{name: "voice skipped", event: NewVoiceSkipped("key", "disabled", nil), expected: KindVoiceSkipped},
		{name: "cue scheduled", event: NewCueScheduled("DOORBELL", time.Second), expected: KindCueScheduled},
		{name: "cue fired", event: NewCueFired("DOORBELL"), expected: KindCueFired},
		{name: "reveal drained", event: NewRevealDrained("run"), expected: KindRevealDrained},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestTurnCommittedAndAbortedKindsAreDistinct(t *testing.T) {
	committed := NewTurnCommitted("run", 1)
	aborted := NewTurnAborted("run", nil)

	if committed.Kind() == aborted.Kind() {
		t.Fatalf("expected committed and aborted kinds to differ, both were %q", committed.Kind())
	}
}

func TestKindNamespace(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected string
	}{
		{kind: KindTurnCommitted, expected: NamespaceTurnState},
		{kind: KindVoiceSkipped, expected: "voice"},
		{kind: KindRevealDrained, expected: "reveal"},
		{kind: Kind("bare"), expected: "bare"},
	}

	for _, testCase := range testCases {
		t.Run(string(testCase.kind), func(t *testing.T) {
			if got := testCase.kind.Namespace(); got != testCase.expected {
				t.Fatalf("expected namespace %q, got %q", testCase.expected, got)
			}
		})
	}
}
