// Package speechtotext transcribes lines dictated by the operator.
package speechtotext

import (
	"context"

	"github.com/koscakluka/ema-stage/core/audio"
)

const DefaultLanguage = "fr"

// Transcriber streams captured audio to a speech recognizer.
type Transcriber interface {
	// Transcribe opens a stream. Callbacks are called until the stream is
	// stopped or ctx is done.
	Transcribe(ctx context.Context, opts ...TranscriptionOption) error
	SendAudio(audio []byte) error
	// StopStream asks the recognizer to finish the stream. Pending
	// transcripts are still delivered.
	StopStream() error
}

type TranscriptionOptions struct {
	// InterimTranscriptionCallback receives the utterance so far, unstable
	// words included.
	InterimTranscriptionCallback func(transcript string)
	// TranscriptionCallback receives every finished utterance.
	TranscriptionCallback func(transcript string)
	SpeechStartedCallback func()

	EncodingInfo audio.EncodingInfo
	Language     string
}

type TranscriptionOption func(*TranscriptionOptions)

func DefaultTranscriptionOptions() TranscriptionOptions {
	return TranscriptionOptions{
		EncodingInfo: audio.GetDefaultEncodingInfo(),
		Language:     DefaultLanguage,
	}
}

func WithTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptionCallback = callback
	}
}

func WithInterimTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.InterimTranscriptionCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if language != "" {
			o.Language = language
		}
	}
}
