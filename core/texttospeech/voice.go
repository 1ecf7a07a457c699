// Package texttospeech defines how voice clips for a spoken line are
// retrieved. Providers live in subpackages.
package texttospeech

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/koscakluka/ema-stage/core/audio"
)

// MaxTextLength is the longest text, in runes, a provider accepts.
const MaxTextLength = 4000

// Voice synthesizes the voice clip of a spoken line.
type Voice interface {
	Synthesize(ctx context.Context, text string) (*audio.Clip, error)
}

// PrepareText trims text and checks it can be synthesized.
func PrepareText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if length := utf8.RuneCountInString(text); length > MaxTextLength {
		return "", fmt.Errorf("%w: %d runes, at most %d", ErrTextTooLong, length, MaxTextLength)
	}
	return text, nil
}
