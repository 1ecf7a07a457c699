package conversations

import (
	"github.com/jinzhu/copier"
)

// State is the full simulation snapshot returned by the backend.
type State struct {
	ScenarioName                string   `json:"scenario_name"`
	StageIndex                  int      `json:"stage_index"`
	StageName                   string   `json:"stage_name"`
	CurrentObjective            string   `json:"current_objective"`
	DirectorReason              string   `json:"director_reason"`
	AudienceConstraint          string   `json:"audience_constraint"`
	AudienceConstraintTurnsLeft int      `json:"audience_constraint_turns_left"`
	TurnCount                   int      `json:"turn_count"`
	Messages                    []Turn   `json:"messages"`
	PendingProposals            []string `json:"pending_proposals"`
	SelectedChoices             []string `json:"selected_choices"`
	LastWinner                  string   `json:"last_winner"`
	AvailableStages             []string `json:"available_stages"`
	LLMEnabled                  bool     `json:"llm_enabled"`
	LLMConfigured               bool     `json:"llm_configured"`
	LLMProvider                 string   `json:"llm_provider"`
	LLMModel                    string   `json:"llm_model"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	clone := &State{}
	if err := copier.CopyWithOption(clone, s, copier.Option{DeepCopy: true}); err != nil {
		logger.Error("failed to copy state", "error", err)
		return s.shallowClone()
	}
	return clone
}

func (s *State) shallowClone() *State {
	clone := *s
	clone.Messages = append([]Turn(nil), s.Messages...)
	return &clone
}

// Latest returns the last turn of role, or nil.
func (s *State) Latest(role Role) *Turn {
	if s == nil {
		return nil
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return &s.Messages[i]
		}
	}
	return nil
}

// LatestSpoken returns the last non-blank turn of role, or nil.
func (s *State) LatestSpoken(role Role) *Turn {
	if s == nil {
		return nil
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role && !s.Messages[i].IsBlank() {
			return &s.Messages[i]
		}
	}
	return nil
}

// WithoutTrailing returns a copy of the state without its last message when
// that message has role.
func (s *State) WithoutTrailing(role Role) *State {
	clone := s.Clone()
	if clone == nil {
		return nil
	}
	if n := len(clone.Messages); n > 0 && clone.Messages[n-1].Role == role {
		clone.Messages = clone.Messages[:n-1]
	}
	return clone
}

// Count returns the number of turns of role.
func (s *State) Count(role Role) int {
	if s == nil {
		return 0
	}
	count := 0
	for _, message := range s.Messages {
		if message.Role == role {
			count++
		}
	}
	return count
}
