package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, WithHTTPClient(server.Client()))
}

func TestHealth(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status": "ok", "llm_enabled": true, "victim_voice_enabled": true}`))
	})

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if health.Status != "ok" || !health.VictimVoiceEnabled || !health.LLMEnabled {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestResetReturnsState(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/simulation/reset" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"scenario_name": "Support", "turn_count": 0, "messages": []}`))
	})

	state, err := client.Reset(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if state.ScenarioName != "Support" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestVoteSendsIndex(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["winner_index"] != 2 {
			t.Errorf("expected winner index 2, got %v", body)
		}
		_, _ = w.Write([]byte(`{"last_winner": "Parler de son chat"}`))
	})

	state, err := client.Vote(context.Background(), 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if state.LastWinner != "Parler de son chat" {
		t.Fatalf("unexpected winner %q", state.LastWinner)
	}
}

func TestErrorCarriesDetail(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Aucun choix audience disponible."}`))
	})

	_, err := client.SimulateVote(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Detail != "Aucun choix audience disponible." {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}
