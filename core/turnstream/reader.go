package turnstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/koscakluka/ema-stage/core/conversations"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultReadSize = 4096

var blockDelimiter = []byte("\n\n")

// Handler receives the frames of one streamed turn.
type Handler interface {
	// OnChunk is called for every chunk frame, in stream order.
	OnChunk(ctx context.Context, text string)
	// OnDone is called once, for the first done frame. state is nil when the
	// frame carried none. The stream is not read further until OnDone
	// returns, an error aborts the read.
	OnDone(ctx context.Context, state *conversations.State) error
}

// Reader turns a server-sent event body into Handler calls.
type Reader struct {
	readSize int
}

type ReaderOption func(*Reader)

// WithReadSize sets how many bytes are read from the body at a time.
func WithReadSize(size int) ReaderOption {
	return func(r *Reader) {
		if size > 0 {
			r.readSize = size
		}
	}
}

func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{readSize: defaultReadSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type readRun struct {
	handler Handler

	chunks      int
	done        bool
	streamError string
}

// Read consumes body until it ends and dispatches every frame to handler. It
// fails with a protocol StreamError when the stream reported an error frame
// or never produced a done frame.
func (r *Reader) Read(ctx context.Context, body io.Reader, handler Handler) error {
	ctx, span := tracer.Start(ctx, "read turn stream")
	defer span.End()

	run := &readRun{handler: handler}
	err := r.read(ctx, body, run)
	span.SetAttributes(
		attribute.Int("stream.chunks", run.chunks),
		attribute.Bool("stream.done", run.done),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *Reader) read(ctx context.Context, body io.Reader, run *readRun) error {
	buf := make([]byte, r.readSize)
	var pending []byte

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			pending = append(pending, bytes.ReplaceAll(buf[:n], []byte("\r"), nil)...)

			var err error
			if pending, err = run.flush(ctx, pending); err != nil {
				return err
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return &StreamError{Kind: TransportError, Detail: "failed to read stream", Cause: readErr}
		}
	}

	if tail := strings.TrimSpace(string(pending)); tail != "" {
		if err := run.dispatch(ctx, tail); err != nil {
			return err
		}
	}

	if run.streamError != "" {
		return &StreamError{Kind: ProtocolError, Detail: run.streamError, Cause: ErrStreamFailed}
	}
	if !run.done {
		return &StreamError{Kind: ProtocolError, Detail: "stream ended without a final state", Cause: ErrNoDone}
	}
	return nil
}

// flush dispatches every complete block at the head of pending and returns
// the incomplete remainder.
func (run *readRun) flush(ctx context.Context, pending []byte) ([]byte, error) {
	for {
		idx := bytes.Index(pending, blockDelimiter)
		if idx < 0 {
			return pending, nil
		}

		block := strings.TrimSpace(string(pending[:idx]))
		pending = pending[idx+len(blockDelimiter):]
		if block == "" {
			continue
		}
		if err := run.dispatch(ctx, block); err != nil {
			return pending, err
		}
	}
}

func (run *readRun) dispatch(ctx context.Context, block string) error {
	frame, ok := ParseFrame(block)
	if !ok {
		return nil
	}

	switch frame.Kind {
	case FrameChunk:
		run.chunks++
		run.handler.OnChunk(ctx, frame.Chunk.Text)

	case FrameDone:
		if run.done {
			logger.DebugContext(ctx, "ignoring repeated done frame")
			return nil
		}
		run.done = true
		return run.handler.OnDone(ctx, frame.Done.State)

	case FrameError:
		detail := strings.TrimSpace(frame.Error.Detail)
		if detail == "" {
			detail = DefaultStreamErrorDetail
		}
		logger.WarnContext(ctx, "stream reported an error", "detail", detail)
		run.streamError = detail

	default:
		logger.DebugContext(ctx, "ignoring frame", "kind", frame.Kind)
	}

	return nil
}
