package orchestration

import "sync"

const defaultAudienceEvery = 3

// audienceTrigger decides when the audience flow is offered, every N
// scammer turns.
type audienceTrigger struct {
	mu sync.Mutex

	hook       AudienceHook
	every      int
	next       int
	inProgress bool
}

func newAudienceTrigger() *audienceTrigger {
	return &audienceTrigger{every: defaultAudienceEvery, next: defaultAudienceEvery}
}

// sync aligns the next trigger with count scammer turns and ends any flow in
// progress.
func (t *audienceTrigger) sync(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next = (count/t.every + 1) * t.every
	t.inProgress = false
}

// check reports whether the flow should open after count scammer turns.
func (t *audienceTrigger) check(count int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inProgress || count < t.next {
		return false
	}

	t.inProgress = true
	for t.next <= count {
		t.next += t.every
	}
	return true
}

func (t *audienceTrigger) complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inProgress = false
}

func (t *audienceTrigger) nextAt() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}
