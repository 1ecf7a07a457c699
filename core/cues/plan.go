package cues

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// CharsPerSecond estimates speaking speed when the voice duration is
	// unknown.
	CharsPerSecond = 15.0
	// MaxCueDelay bounds how far into a line a cue can be placed.
	MaxCueDelay = 12 * time.Second
)

// Cue places one effect at a position in the spoken projection of a line.
type Cue struct {
	Tag               string
	SpokenCharsBefore int
	TotalSpokenChars  int
}

// Plan is the spoken projection of a line together with its cues, in
// non-decreasing offset order.
type Plan struct {
	Spoken string
	Cues   []Cue
}

// Spoken returns text with every effect marker removed.
func Spoken(text string) string {
	return NewPlan(text, nil).Spoken
}

// NewPlan lexes text into a plan. When the text carries no inline markers,
// every fallback tag is placed at the start of the line.
func NewPlan(text string, fallbackTags []string) Plan {
	var spoken strings.Builder
	var tags []Cue
	afterMarker := false

	for _, token := range Lex(text) {
		switch token.Kind {
		case TokenTag:
			tags = append(tags, Cue{Tag: token.Tag, SpokenCharsBefore: utf8.RuneCountInString(spoken.String())})
			afterMarker = true
		case TokenText:
			segment := token.Text
			if spoken.Len() == 0 || (afterMarker && endsWithSpace(spoken.String())) {
				segment = strings.TrimLeftFunc(segment, unicode.IsSpace)
			}
			spoken.WriteString(segment)
			afterMarker = false
		}
	}

	projection := strings.TrimRightFunc(spoken.String(), unicode.IsSpace)
	total := max(1, utf8.RuneCountInString(projection))

	if len(tags) == 0 {
		for _, tag := range fallbackTags {
			if tag = strings.ToUpper(strings.TrimSpace(tag)); tag != "" {
				tags = append(tags, Cue{Tag: tag})
			}
		}
	}

	for i := range tags {
		tags[i].SpokenCharsBefore = min(tags[i].SpokenCharsBefore, total)
		tags[i].TotalSpokenChars = total
	}

	return Plan{Spoken: projection, Cues: tags}
}

// Filter returns a copy of the plan keeping only cues whose tag is known.
func (p Plan) Filter(known func(tag string) bool) Plan {
	filtered := Plan{Spoken: p.Spoken}
	for _, cue := range p.Cues {
		if known(cue.Tag) {
			filtered.Cues = append(filtered.Cues, cue)
		}
	}
	return filtered
}

// Delay returns when cue should fire after the voice starts. With a known
// duration the cue is placed proportionally to its offset, otherwise speaking
// speed is estimated at CharsPerSecond.
func Delay(cue Cue, duration time.Duration, known bool) time.Duration {
	return delay(cue, duration, known, MaxCueDelay)
}

func delay(cue Cue, duration time.Duration, known bool, maxDelay time.Duration) time.Duration {
	var d time.Duration
	if known && duration > 0 {
		total := max(1, cue.TotalSpokenChars)
		d = time.Duration(float64(duration) * float64(cue.SpokenCharsBefore) / float64(total))
		d = min(d, duration)
	} else {
		d = time.Duration(float64(cue.SpokenCharsBefore) / CharsPerSecond * float64(time.Second))
	}

	return max(0, min(d, maxDelay))
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}
