// Package simulation is the client of the simulation backend's request and
// response endpoints.
package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-stage/core/conversations"
	"github.com/koscakluka/ema-stage/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Health is the backend health report.
type Health struct {
	Status             string `json:"status"`
	LLMEnabled         bool   `json:"llm_enabled"`
	LLMConfigured      bool   `json:"llm_configured"`
	LLMProvider        string `json:"llm_provider"`
	LLMModel           string `json:"llm_model"`
	VictimVoiceEnabled bool   `json:"victim_voice_enabled"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &health)
	return health, err
}

// State returns the current simulation snapshot.
func (c *Client) State(ctx context.Context) (*conversations.State, error) {
	return c.state(ctx, http.MethodGet, "/api/simulation/state", nil)
}

// Reset restarts the simulation and returns the fresh snapshot.
func (c *Client) Reset(ctx context.Context) (*conversations.State, error) {
	return c.state(ctx, http.MethodPost, "/api/simulation/reset", nil)
}

// SubmitProposal adds an audience proposal.
func (c *Client) SubmitProposal(ctx context.Context, proposal string) (*conversations.State, error) {
	return c.state(ctx, http.MethodPost, "/api/audience/submit", map[string]string{"proposal": proposal})
}

// SelectChoices asks the moderator to pick the choices put to the vote among
// the pending proposals and the given extra ones.
func (c *Client) SelectChoices(ctx context.Context, proposals ...string) (*conversations.State, error) {
	body := map[string][]string{}
	if len(proposals) > 0 {
		body["proposals"] = proposals
	}
	return c.state(ctx, http.MethodPost, "/api/audience/select", body)
}

// Vote elects the selected choice at index.
func (c *Client) Vote(ctx context.Context, index int) (*conversations.State, error) {
	return c.state(ctx, http.MethodPost, "/api/audience/vote", map[string]int{"winner_index": index})
}

// SimulateVote lets the backend elect a choice at random.
func (c *Client) SimulateVote(ctx context.Context) (*conversations.State, error) {
	return c.state(ctx, http.MethodPost, "/api/audience/vote/simulate", nil)
}

func (c *Client) state(ctx context.Context, method, path string, body any) (*conversations.State, error) {
	state := &conversations.State{}
	if err := c.do(ctx, method, path, body, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := tracer.Start(ctx, "simulation "+path, trace.WithAttributes(
		attribute.String("http.request.method", method),
	))
	defer span.End()

	err := c.roundTrip(ctx, method, path, body, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Detail: utils.ResponseDetail(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
