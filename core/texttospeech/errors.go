package texttospeech

import "errors"

var (
	// ErrVoiceUnavailable is returned for any failure to retrieve a voice
	// clip. Callers degrade to a silent presentation.
	ErrVoiceUnavailable = errors.New("voice unavailable")

	// ErrEmptyAudio is returned when the provider answered without audio.
	ErrEmptyAudio = errors.New("no voice audio available")

	// ErrEmptyText is returned when attempting to synthesize blank text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong is returned for text longer than MaxTextLength runes.
	ErrTextTooLong = errors.New("text too long")
)

// SynthesisError provides detailed error information from voice providers.
// It matches ErrVoiceUnavailable with errors.Is.
type SynthesisError struct {
	// Provider is the voice provider that returned the error.
	Provider string

	// Code is the provider-specific error code, the HTTP status for HTTP
	// providers.
	Code string

	Message string

	// Cause is the underlying error (if any).
	Cause error

	// Retryable indicates if the error is transient and retry may succeed.
	Retryable bool
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

func (e *SynthesisError) Is(target error) bool {
	return target == ErrVoiceUnavailable
}
