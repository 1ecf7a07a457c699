// Package deepgram transcribes dictation with the Deepgram listen websocket.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-stage/core/speechtotext"
)

const (
	defaultBaseURL = "wss://api.deepgram.com"
	defaultModel   = "nova-3"
)

var (
	ErrStreamOpen   = errors.New("transcription stream already open")
	ErrStreamClosed = errors.New("no transcription stream open")
)

type TranscriptionClient struct {
	apiKey  string
	baseURL string
	model   string

	connMu sync.Mutex
	conn   *websocket.Conn

	// accumulated holds the final segments of the current utterance. It is
	// only touched by the read loop.
	accumulated []string
}

type ClientOption func(*TranscriptionClient)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *TranscriptionClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

// NewTranscriptionClient creates a client authenticated with apiKey, or
// DEEPGRAM_API_KEY when apiKey is empty.
func NewTranscriptionClient(apiKey string, opts ...ClientOption) (*TranscriptionClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("DEEPGRAM_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	client := &TranscriptionClient{apiKey: apiKey, baseURL: defaultBaseURL, model: defaultModel}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

var _ speechtotext.Transcriber = (*TranscriptionClient)(nil)

func (s *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := speechtotext.DefaultTranscriptionOptions()
	for _, opt := range opts {
		opt(&options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		return ErrStreamOpen
	}

	conn, err := s.connectWebsocket(ctx, encoding, options)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}
	s.conn = conn
	s.accumulated = nil

	go s.readAndProcessMessages(ctx, conn, options)
	return nil
}

func (s *TranscriptionClient) connectWebsocket(ctx context.Context, encoding encodingInfo, options speechtotext.TranscriptionOptions) (*websocket.Conn, error) {
	listenURL, err := url.Parse(s.baseURL + "/v1/listen")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	queryParams := listenURL.Query()
	encoding.apply(queryParams)
	queryParams.Set("model", s.model)
	queryParams.Set("language", options.Language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("punctuate", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	if options.SpeechStartedCallback != nil {
		queryParams.Set("vad_events", "true")
	}
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func (s *TranscriptionClient) SendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return ErrStreamClosed
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

func (s *TranscriptionClient) StopStream() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}
	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

func (s *TranscriptionClient) readAndProcessMessages(ctx context.Context, conn *websocket.Conn, options speechtotext.TranscriptionOptions) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	defer func() {
		s.connMu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.connMu.Unlock()
		conn.Close()
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Warn("failed to read deepgram websocket message", "error", err)
			}
			s.onUtteranceEnded(options)
			return
		}
		if msgType == websocket.TextMessage {
			s.processMessage(msg, options)
		}
	}
}

func (s *TranscriptionClient) processMessage(msg []byte, options speechtotext.TranscriptionOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram transcript", "error", err)
			return
		}

		transcript := ""
		if len(msgResp.Channel.Alternatives) > 0 {
			transcript = strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		}

		if msgResp.IsFinal {
			if transcript != "" {
				s.accumulated = append(s.accumulated, transcript)
			}
			if msgResp.SpeechFinal {
				s.onUtteranceEnded(options)
				return
			}
			transcript = ""
		}

		if options.InterimTranscriptionCallback != nil {
			interim := strings.Join(append(s.accumulated[:len(s.accumulated):len(s.accumulated)], transcript), " ")
			if interim = strings.TrimSpace(interim); interim != "" {
				options.InterimTranscriptionCallback(interim)
			}
		}

	case api.TypeUtteranceEndResponse:
		s.onUtteranceEnded(options)

	case api.TypeSpeechStartedResponse:
		if options.SpeechStartedCallback != nil {
			options.SpeechStartedCallback()
		}
	}
}

func (s *TranscriptionClient) onUtteranceEnded(options speechtotext.TranscriptionOptions) {
	transcript := strings.TrimSpace(strings.Join(s.accumulated, " "))
	s.accumulated = nil
	if transcript != "" && options.TranscriptionCallback != nil {
		options.TranscriptionCallback(transcript)
	}
}
