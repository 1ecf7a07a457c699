// Package voiceapi retrieves voice clips from the simulation backend's voice
// endpoint.
package voiceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/koscakluka/ema-stage/core/audio"
	"github.com/koscakluka/ema-stage/core/texttospeech"
	"github.com/koscakluka/ema-stage/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	providerName = "backend"
	voicePath    = "/api/voice/victim"
)

type Client struct {
	options texttospeech.TextToSpeechOptions
}

func NewClient(opts ...texttospeech.TextToSpeechOption) *Client {
	options := texttospeech.DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Client{options: options}
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

// Synthesize posts text to the backend and decodes the returned clip. Every
// failure matches texttospeech.ErrVoiceUnavailable, except validation errors
// and an empty payload which is texttospeech.ErrEmptyAudio.
func (c *Client) Synthesize(ctx context.Context, text string) (*audio.Clip, error) {
	ctx, span := tracer.Start(ctx, "synthesize victim voice", trace.WithAttributes(
		attribute.Int("voice.text_length", len(text)),
	))
	defer span.End()

	clip, err := c.synthesize(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("voice.duration_ms", clip.Duration().Milliseconds()))
	return clip, nil
}

func (c *Client) synthesize(ctx context.Context, text string) (*audio.Clip, error) {
	text, err := texttospeech.PrepareText(text)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode voice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.options.BaseURL+voicePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", texttospeech.ErrVoiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.options.HTTPClient.Do(req)
	if err != nil {
		return nil, &texttospeech.SynthesisError{
			Provider:  providerName,
			Message:   "voice request failed",
			Cause:     err,
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &texttospeech.SynthesisError{
			Provider:  providerName,
			Code:      strconv.Itoa(resp.StatusCode),
			Message:   utils.ResponseDetail(resp),
			Retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &texttospeech.SynthesisError{
			Provider: providerName,
			Message:  "failed to read voice payload",
			Cause:    err,
		}
	}
	if len(payload) == 0 {
		return nil, texttospeech.ErrEmptyAudio
	}

	clip, err := audio.DecodeClip(payload, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &texttospeech.SynthesisError{
			Provider: providerName,
			Message:  "failed to decode voice payload",
			Cause:    err,
		}
	}
	if clip.Empty() {
		return nil, texttospeech.ErrEmptyAudio
	}

	return clip, nil
}
