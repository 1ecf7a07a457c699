package orchestration

import "testing"

func TestAudienceTriggerOpensEveryNTurns(t *testing.T) {
	trigger := newAudienceTrigger()
	trigger.sync(0)

	testCases := []struct {
		count    int
		complete bool
		expected bool
	}{
		{count: 1, expected: false},
		{count: 2, expected: false},
		{count: 3, expected: true},
		{count: 4, expected: false},
		{count: 5, complete: true, expected: false},
		{count: 6, expected: true},
	}

	for _, testCase := range testCases {
		if testCase.complete {
			trigger.complete()
		}
		if got := trigger.check(testCase.count); got != testCase.expected {
			t.Fatalf("expected check(%d) to be %v, got %v", testCase.count, testCase.expected, got)
		}
	}
}

func TestAudienceTriggerSyncSkipsPastThresholds(t *testing.T) {
	trigger := newAudienceTrigger()
	trigger.sync(7)

	if next := trigger.nextAt(); next != 9 {
		t.Fatalf("expected next trigger at 9, got %d", next)
	}

	trigger.every = 4
	trigger.sync(8)
	if next := trigger.nextAt(); next != 12 {
		t.Fatalf("expected next trigger at 12, got %d", next)
	}
}

func TestAudienceTriggerCatchesUpAfterJump(t *testing.T) {
	trigger := newAudienceTrigger()
	trigger.sync(0)

	if !trigger.check(7) {
		t.Fatalf("expected the flow to open after jumping past the threshold")
	}
	if next := trigger.nextAt(); next != 9 {
		t.Fatalf("expected next trigger at 9, got %d", next)
	}
}
