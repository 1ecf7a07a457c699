package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-stage/core/texttospeech"
)

func newSpeakServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speak" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "token test-key" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func newTestClient(t *testing.T, baseURL string) *TextToSpeechClient {
	t.Helper()

	client, err := NewTextToSpeechClient(
		texttospeech.WithBaseURL(baseURL),
		texttospeech.WithAPIKey("test-key"),
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return client
}

func TestSynthesizeCollectsAudioUntilFlushed(t *testing.T) {
	received := make(chan speakMessage, 1)
	baseURL := newSpeakServer(t, func(conn *websocket.Conn) {
		var speak speakMessage
		if err := conn.ReadJSON(&speak); err != nil {
			t.Errorf("failed to read speak message: %v", err)
			return
		}
		received <- speak

		var flush websocketMessage
		if err := conn.ReadJSON(&flush); err != nil || flush.Type != "Flush" {
			t.Errorf("expected flush message, got %+v (%v)", flush, err)
			return
		}

		_ = conn.WriteMessage(websocket.BinaryMessage, make([]byte, 24000))
		_ = conn.WriteJSON(map[string]string{"type": "Warning", "warn_code": "W1", "warn_msg": "slow"})
		_ = conn.WriteMessage(websocket.BinaryMessage, make([]byte, 24000))
		_ = conn.WriteJSON(map[string]any{"type": "Flushed", "sequence_id": 0})

		var closeMessage websocketMessage
		_ = conn.ReadJSON(&closeMessage)
	})

	clip, err := newTestClient(t, baseURL).Synthesize(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if speak := <-received; speak.Type != "Speak" || speak.Text != "Bonjour" {
		t.Fatalf("unexpected speak message %+v", speak)
	}
	if clip.Duration() != time.Second {
		t.Fatalf("expected 1s of audio, got %v", clip.Duration())
	}
}

func TestSynthesizeReportsProviderError(t *testing.T) {
	baseURL := newSpeakServer(t, func(conn *websocket.Conn) {
		var message websocketMessage
		_ = conn.ReadJSON(&message)
		_ = conn.ReadJSON(&message)
		_ = conn.WriteJSON(map[string]string{"type": "Error", "err_code": "INVALID", "err_msg": "bad text"})
	})

	_, err := newTestClient(t, baseURL).Synthesize(context.Background(), "Bonjour")
	if !errors.Is(err, texttospeech.ErrVoiceUnavailable) {
		t.Fatalf("expected ErrVoiceUnavailable, got %v", err)
	}
}

func TestSynthesizeConnectionDropped(t *testing.T) {
	baseURL := newSpeakServer(t, func(conn *websocket.Conn) {
		var message websocketMessage
		_ = conn.ReadJSON(&message)
		_ = conn.ReadJSON(&message)
	})

	_, err := newTestClient(t, baseURL).Synthesize(context.Background(), "Bonjour")
	var synthesisErr *texttospeech.SynthesisError
	if !errors.As(err, &synthesisErr) || !synthesisErr.Retryable {
		t.Fatalf("expected retryable SynthesisError, got %v", err)
	}
}

func TestNewClientRejectsUnknownVoice(t *testing.T) {
	_, err := NewTextToSpeechClient(
		texttospeech.WithAPIKey("test-key"),
		texttospeech.WithVoiceModel("aura-unknown"),
	)
	if err == nil {
		t.Fatalf("expected an error for an unknown voice")
	}
}
