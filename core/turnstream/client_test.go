package turnstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStreamStep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != streamPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("unexpected accept header %q", r.Header.Get("Accept"))
		}
		var request stepRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.ScammerInput != "Bonjour" {
			t.Errorf("unexpected request %+v (%v)", request, err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, block := range []string{
			"event: chunk\ndata: {\"text\": \"Oui ?\"}\n\n",
			"event: done\ndata: {\"state\": {\"turn_count\": 1}}\n\n",
		} {
			_, _ = w.Write([]byte(block))
			flusher.Flush()
		}
	}))
	defer server.Close()

	handler := &recordingHandler{}
	client := NewClient(server.URL+"/", WithHTTPClient(server.Client()))
	if err := client.StreamStep(context.Background(), "Bonjour", handler); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(handler.events) != 2 || handler.events[0] != "chunk:Oui ?" {
		t.Fatalf("unexpected events %v", handler.events)
	}
}

func TestStreamStepNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Le message est vide."}`))
	}))
	defer server.Close()

	err := NewClient(server.URL).StreamStep(context.Background(), "Bonjour", &recordingHandler{})
	var streamErr *StreamError
	if !errors.As(err, &streamErr) || streamErr.Kind != TransportError {
		t.Fatalf("expected transport StreamError, got %v", err)
	}
	if streamErr.Detail != "Le message est vide." {
		t.Fatalf("expected backend detail, got %q", streamErr.Detail)
	}
}

func TestStreamStepUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	err := NewClient(server.URL).StreamStep(context.Background(), "Bonjour", &recordingHandler{})
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSchemas(t *testing.T) {
	schemas := Schemas()
	for _, name := range []string{"chunk", "done", "error", "state"} {
		if schemas[name] == nil {
			t.Fatalf("expected schema %q", name)
		}
	}
	if _, ok := schemas["chunk"].Properties.Get("text"); !ok {
		t.Fatalf("expected chunk schema to describe text")
	}
}
