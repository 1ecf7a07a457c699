// Package dictation lets the operator speak the scammer line instead of
// typing it. Captured audio is streamed to a transcriber while dictation is
// active.
package dictation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/koscakluka/ema-stage/core/audio"
	"github.com/koscakluka/ema-stage/core/speechtotext"
)

var (
	ErrActive   = errors.New("dictation already active")
	ErrInactive = errors.New("dictation not active")
)

// Recorder captures the operator's microphone.
type Recorder interface {
	StartCapture(onAudio func(pcm []byte)) error
	StopCapture() error
	CaptureEncodingInfo() audio.EncodingInfo
}

// Callbacks receive the dictated text. Interim is called with the unstable
// utterance so far, Final once per finished utterance.
type Callbacks struct {
	Interim func(text string)
	Final   func(text string)
}

type Dictation struct {
	recorder    Recorder
	transcriber speechtotext.Transcriber
	language    string

	mu     sync.Mutex
	active bool
}

type Option func(*Dictation)

func WithLanguage(language string) Option {
	return func(d *Dictation) {
		if language != "" {
			d.language = language
		}
	}
}

func New(recorder Recorder, transcriber speechtotext.Transcriber, opts ...Option) *Dictation {
	d := &Dictation{
		recorder:    recorder,
		transcriber: transcriber,
		language:    speechtotext.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dictation) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Start opens a transcription stream and starts capturing. The stream ends
// on Stop or when ctx is done.
func (d *Dictation) Start(ctx context.Context, callbacks Callbacks) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return ErrActive
	}

	ctx, span := tracer.Start(ctx, "start dictation")
	defer span.End()

	opts := []speechtotext.TranscriptionOption{
		speechtotext.WithEncodingInfo(d.recorder.CaptureEncodingInfo()),
		speechtotext.WithLanguage(d.language),
		speechtotext.WithInterimTranscriptionCallback(callbacks.Interim),
		speechtotext.WithTranscriptionCallback(callbacks.Final),
	}
	if err := d.transcriber.Transcribe(context.WithoutCancel(ctx), opts...); err != nil {
		err = fmt.Errorf("failed to open transcription: %w", err)
		span.RecordError(err)
		return err
	}

	if err := d.recorder.StartCapture(d.forward); err != nil {
		if stopErr := d.transcriber.StopStream(); stopErr != nil {
			logger.WarnContext(ctx, "failed to close transcription", "error", stopErr)
		}
		err = fmt.Errorf("failed to start capture: %w", err)
		span.RecordError(err)
		return err
	}

	d.active = true
	return nil
}

// Stop stops capturing. Utterances still being transcribed are delivered
// afterwards.
func (d *Dictation) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return ErrInactive
	}
	d.active = false

	return errors.Join(d.recorder.StopCapture(), d.transcriber.StopStream())
}

func (d *Dictation) forward(pcm []byte) {
	if err := d.transcriber.SendAudio(pcm); err != nil {
		logger.Debug("dropped dictation audio", "error", err)
	}
}
