package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-stage/core/speechtotext"
)

func transcriptMessage(transcript string, isFinal, speechFinal bool) map[string]any {
	return map[string]any{
		"type":         "Results",
		"is_final":     isFinal,
		"speech_final": speechFinal,
		"channel": map[string]any{
			"alternatives": []map[string]any{{"transcript": transcript}},
		},
	}
}

func newListenServer(t *testing.T, handle func(r *http.Request, conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Token test-key" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(r, conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

type transcripts struct {
	mu      sync.Mutex
	interim []string
	final   []string
	done    chan struct{}
}

func (tr *transcripts) options() []speechtotext.TranscriptionOption {
	return []speechtotext.TranscriptionOption{
		speechtotext.WithInterimTranscriptionCallback(func(transcript string) {
			tr.mu.Lock()
			defer tr.mu.Unlock()
			tr.interim = append(tr.interim, transcript)
		}),
		speechtotext.WithTranscriptionCallback(func(transcript string) {
			tr.mu.Lock()
			tr.final = append(tr.final, transcript)
			tr.mu.Unlock()
			tr.done <- struct{}{}
		}),
	}
}

func TestTranscribeAccumulatesSegmentsIntoUtterances(t *testing.T) {
	audioReceived := make(chan []byte, 1)
	baseURL := newListenServer(t, func(r *http.Request, conn *websocket.Conn) {
		query := r.URL.Query()
		if query.Get("language") != "fr" || query.Get("encoding") != "linear16" || query.Get("sample_rate") != "24000" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}

		_, audio, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("failed to read audio: %v", err)
			return
		}
		audioReceived <- audio

		_ = conn.WriteJSON(transcriptMessage("Bonjour", false, false))
		_ = conn.WriteJSON(transcriptMessage("Bonjour madame", true, false))
		_ = conn.WriteJSON(transcriptMessage("c'est", false, false))
		_ = conn.WriteJSON(transcriptMessage("c'est votre banque", true, true))

		var closeStream struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&closeStream); err != nil || closeStream.Type != "CloseStream" {
			t.Errorf("expected close stream message, got %+v (%v)", closeStream, err)
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	client, err := NewTranscriptionClient("test-key", WithBaseURL(baseURL))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tr := &transcripts{done: make(chan struct{}, 1)}
	if err := client.Transcribe(context.Background(), tr.options()...); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := client.Transcribe(context.Background()); !errors.Is(err, ErrStreamOpen) {
		t.Fatalf("expected ErrStreamOpen, got %v", err)
	}

	if err := client.SendAudio([]byte{0, 0, 1, 1}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	<-audioReceived

	select {
	case <-tr.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a finished utterance")
	}
	if err := client.StopStream(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.final) != 1 || tr.final[0] != "Bonjour madame c'est votre banque" {
		t.Fatalf("expected one accumulated utterance, got %v", tr.final)
	}
	expectedInterim := []string{"Bonjour", "Bonjour madame", "Bonjour madame c'est"}
	if strings.Join(tr.interim, "|") != strings.Join(expectedInterim, "|") {
		t.Fatalf("expected interim %v, got %v", expectedInterim, tr.interim)
	}
}

func TestTranscribeFlushesPendingSegmentsWhenStreamEnds(t *testing.T) {
	baseURL := newListenServer(t, func(_ *http.Request, conn *websocket.Conn) {
		_ = conn.WriteJSON(transcriptMessage("Allô", true, false))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	client, err := NewTranscriptionClient("test-key", WithBaseURL(baseURL))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tr := &transcripts{done: make(chan struct{}, 1)}
	if err := client.Transcribe(context.Background(), tr.options()...); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	select {
	case <-tr.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the pending segment to be flushed")
	}
	if tr.final[0] != "Allô" {
		t.Fatalf("expected %q, got %v", "Allô", tr.final)
	}
}

func TestSendAudioWithoutStream(t *testing.T) {
	client, err := NewTranscriptionClient("test-key")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := client.SendAudio([]byte{0}); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}
	if err := client.StopStream(); err != nil {
		t.Fatalf("expected stopping a closed stream to be a no-op, got %v", err)
	}
}

func TestTranscribeRejectsUnsupportedEncoding(t *testing.T) {
	client, err := NewTranscriptionClient("test-key")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	encoding := audioEncoding(22050)
	if err := client.Transcribe(context.Background(), speechtotext.WithEncodingInfo(encoding)); err == nil {
		t.Fatalf("expected an error for a 22050Hz stream")
	}
}
