package turnstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-stage/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const streamPath = "/api/simulation/step/stream"

// Client requests streamed simulation turns from the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	reader     *Reader
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithReader(reader *Reader) ClientOption {
	return func(c *Client) {
		if reader != nil {
			c.reader = reader
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		reader:     NewReader(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type stepRequest struct {
	ScammerInput string `json:"scammer_input"`
}

// StreamStep submits the scammer message and streams the resulting turn into
// handler. It returns once the stream ended.
func (c *Client) StreamStep(ctx context.Context, message string, handler Handler) error {
	ctx, span := tracer.Start(ctx, "stream simulation step", trace.WithAttributes(
		attribute.Int("step.message_length", len(message)),
	))
	defer span.End()

	if err := c.streamStep(ctx, message, handler); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Client) streamStep(ctx context.Context, message string, handler Handler) error {
	body, err := json.Marshal(stepRequest{ScammerInput: message})
	if err != nil {
		return fmt.Errorf("failed to encode step request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		return &StreamError{Kind: TransportError, Detail: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &StreamError{Kind: TransportError, Detail: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StreamError{Kind: TransportError, Detail: utils.ResponseDetail(resp)}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return &StreamError{Kind: TransportError, Detail: "empty response", Cause: ErrStreamUnsupported}
	}

	return c.reader.Read(ctx, resp.Body, handler)
}
