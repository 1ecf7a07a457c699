// Package conversations models the simulated call as the backend reports it.
package conversations

import "strings"

type Role string

const (
	RoleScammer Role = "scammer"
	RoleVictim  Role = "victim"
)

// Turn is a single message of the call.
//
// Turns received from the backend are committed history and must not be
// modified. Provisional turns are synthesized locally while a turn is in
// flight and never become part of a State.
type Turn struct {
	Role         Role     `json:"role" jsonschema:"enum=scammer,enum=victim"`
	Content      string   `json:"content"`
	Timestamp    string   `json:"timestamp" jsonschema:"format=date-time"`
	SoundEffects []string `json:"sound_effects,omitempty"`

	Provisional  bool   `json:"-"`
	PendingLabel string `json:"-"`
}

// SpokenKey identifies a turn for the purpose of speaking it at most once.
// A nil turn has an empty key.
func SpokenKey(turn *Turn) string {
	if turn == nil {
		return ""
	}
	return turn.Timestamp + "|" + turn.Content
}

// IsBlank reports whether the turn carries no content.
func (t Turn) IsBlank() bool {
	return strings.TrimSpace(t.Content) == ""
}
