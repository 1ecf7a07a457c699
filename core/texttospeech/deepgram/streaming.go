package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-stage/core/audio"
	"github.com/koscakluka/ema-stage/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	typeFlushed = "Flushed"
	typeWarning = "Warning"
	typeError   = "Error"
)

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

// Synthesize opens a speak connection, sends text followed by a flush and
// collects the audio frames until Deepgram confirms the flush.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string) (*audio.Clip, error) {
	ctx, span := tracer.Start(ctx, "synthesize deepgram voice", trace.WithAttributes(
		attribute.String("voice.model", string(c.voice)),
		attribute.Int("voice.text_length", len(text)),
	))
	defer span.End()

	clip, err := c.synthesize(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return clip, nil
}

func (c *TextToSpeechClient) synthesize(ctx context.Context, text string) (*audio.Clip, error) {
	text, err := texttospeech.PrepareText(text)
	if err != nil {
		return nil, err
	}

	conn, err := c.connectWebsocket(ctx)
	if err != nil {
		return nil, &texttospeech.SynthesisError{
			Provider:  providerName,
			Message:   "failed to open websocket",
			Cause:     err,
			Retryable: true,
		}
	}
	defer conn.Close()

	done := withContextCancelHook(ctx, func() { _ = conn.Close() })
	defer close(done)

	if err := errors.Join(
		conn.WriteJSON(speakMessage{Type: "Speak", Text: text}),
		conn.WriteJSON(flushMsg),
	); err != nil {
		return nil, &texttospeech.SynthesisError{
			Provider: providerName,
			Message:  "failed to send text",
			Cause:    err,
		}
	}

	pcm, err := c.collectAudio(ctx, conn)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(closeMsg); err != nil {
		logger.DebugContext(ctx, "failed to close deepgram stream", "error", err)
	}

	if len(pcm) == 0 {
		return nil, texttospeech.ErrEmptyAudio
	}
	return &audio.Clip{Encoding: c.options.EncodingInfo, PCM: pcm}, nil
}

func (c *TextToSpeechClient) collectAudio(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	var pcm []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", texttospeech.ErrVoiceUnavailable, ctxErr)
			}
			return nil, &texttospeech.SynthesisError{
				Provider:  providerName,
				Message:   "websocket closed before flush",
				Cause:     err,
				Retryable: true,
			}
		}

		switch msgType {
		case websocket.BinaryMessage:
			pcm = append(pcm, msg...)
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.DebugContext(ctx, "failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case typeFlushed:
				var flushed api.FlushedResponse
				_ = json.Unmarshal(msg, &flushed)
				logger.DebugContext(ctx, "deepgram flushed", "response", flushed)
				return pcm, nil
			case typeWarning:
				var warning api.WarningResponse
				_ = json.Unmarshal(msg, &warning)
				logger.WarnContext(ctx, "deepgram warning", "response", warning)
			case typeError:
				var failure api.ErrorResponse
				_ = json.Unmarshal(msg, &failure)
				logger.WarnContext(ctx, "deepgram error", "response", failure)
				return nil, &texttospeech.SynthesisError{
					Provider: providerName,
					Message:  strings.TrimSpace(string(msg)),
				}
			}
		}
	}
}

func (c *TextToSpeechClient) connectWebsocket(ctx context.Context) (*websocket.Conn, error) {
	speakURL, err := url.Parse(c.options.BaseURL + "/v1/speak")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", c.options.EncodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(c.options.EncodingInfo.SampleRate))
	urlValues.Set("model", string(c.voice))
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx,
		speakURL.String(),
		http.Header{"Authorization": {"token " + c.options.APIKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func withContextCancelHook(ctx context.Context, onContextDone func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-done:
		}
	}()
	return done
}
