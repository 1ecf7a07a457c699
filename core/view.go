package orchestration

import (
	"sync"
	"time"

	"github.com/koscakluka/ema-stage/core/conversations"
)

const (
	SendingLabel  = "Envoi..."
	ReplyingLabel = "Réponse en cours..."
)

// ViewSnapshot is what the rendering surface draws.
type ViewSnapshot struct {
	// State is the committed state, or the interim state while the newest
	// victim line of a turn is being revealed.
	State *conversations.State
	// Items are the turns to draw, provisional records last.
	Items []conversations.Turn
	// Revealing is set while a victim line is being revealed.
	Revealing bool
}

// view is the presentation state of the orchestrator. Committed history is
// only replaced, provisional records live next to it.
type view struct {
	mu sync.RWMutex

	committed *conversations.State
	interim   *conversations.State

	provisional string
	revealing   bool
	revealText  string
}

func (v *view) setCommitted(state *conversations.State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.committed = state
	v.interim = nil
	v.provisional = ""
	v.revealing = false
	v.revealText = ""
}

func (v *view) committedState() *conversations.State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.committed
}

func (v *view) showProvisional(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.provisional = message
	v.revealing = false
	v.revealText = ""
}

// holdBack shows interim instead of the committed state and drops the
// provisional record.
func (v *view) holdBack(interim *conversations.State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.interim = interim
	v.provisional = ""
}

func (v *view) startReveal() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.revealing {
		v.revealing = true
		v.revealText = ""
	}
}

// setRevealText reports whether the text changed the view.
func (v *view) setRevealText(text string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.revealing || v.revealText == text {
		return false
	}
	v.revealText = text
	return true
}

// restore drops everything that is not committed history.
func (v *view) restore() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.interim = nil
	v.provisional = ""
	v.revealing = false
	v.revealText = ""
}

func (v *view) snapshot(now time.Time) ViewSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	state := v.committed
	if v.interim != nil {
		state = v.interim
	}

	var items []conversations.Turn
	if state != nil {
		items = append(items, state.Messages...)
	}

	timestamp := now.UTC().Format(time.RFC3339Nano)
	if v.provisional != "" {
		items = append(items, conversations.Turn{
			Role:         conversations.RoleScammer,
			Content:      v.provisional,
			Timestamp:    timestamp,
			Provisional:  true,
			PendingLabel: SendingLabel,
		})
	}
	if v.revealing && v.revealText != "" {
		items = append(items, conversations.Turn{
			Role:         conversations.RoleVictim,
			Content:      v.revealText,
			Timestamp:    timestamp,
			Provisional:  true,
			PendingLabel: ReplyingLabel,
		})
	}

	return ViewSnapshot{State: state, Items: items, Revealing: v.revealing}
}
