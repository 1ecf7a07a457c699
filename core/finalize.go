package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-stage/core/conversations"
	"github.com/koscakluka/ema-stage/core/cues"
	"github.com/koscakluka/ema-stage/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// turnRun is the single turn in flight.
type turnRun struct {
	id string

	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}

	committed bool
}

// Submit sends message as the next scammer turn and blocks until the victim
// line was revealed and committed, or the turn was aborted.
//
// Only one turn is processed at a time, Submit returns ErrTurnInFlight while
// another one is running. Blank messages are ignored. Stream failures abort
// the turn, restore the last committed view and are reported to the Alerter.
// Voice and effect failures only cost the sound.
func (o *Orchestrator) Submit(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}

	run, err := o.beginRun(ctx)
	if err != nil {
		return err
	}
	defer o.endRun(run)

	ctx, span := tracer.Start(run.ctx, "submit turn", trace.WithAttributes(
		attribute.String("turn.id", run.id),
		attribute.Int("turn.message_length", len(message)),
	))
	defer span.End()

	o.teardownMedia()
	o.view.showProvisional(message)
	o.setPhase(PhaseSending)
	o.emit(events.NewTurnStarted(run.id, message))
	o.render()

	if o.stream == nil {
		err := errors.New("no stream client configured")
		o.abort(ctx, run, err)
		return err
	}

	o.setPhase(PhaseStreaming)
	o.emit(events.NewTurnStreaming(run.id))
	err = o.stream.StreamStep(ctx, message, &turnHandler{orchestrator: o, run: run})
	if err == nil {
		return nil
	}
	if run.ctx.Err() != nil && !errors.Is(err, context.Cause(run.ctx)) {
		err = fmt.Errorf("%w: %w", context.Cause(run.ctx), err)
	}

	recordSpanError(ctx, err)
	if run.committed {
		// The turn is already part of history, only the trailing failure is
		// reported.
		if run.ctx.Err() == nil {
			o.alert(ctx, err)
		}
		return err
	}
	o.abort(ctx, run, err)
	return err
}

func (o *Orchestrator) beginRun(ctx context.Context) (*turnRun, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, ErrClosed
	}
	if o.run != nil || o.maintaining {
		return nil, ErrTurnInFlight
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	o.run = &turnRun{
		id:     uuid.NewString(),
		ctx:    runCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	return o.run, nil
}

func (o *Orchestrator) endRun(run *turnRun) {
	o.mu.Lock()
	if o.run == run {
		o.run = nil
	}
	o.mu.Unlock()

	run.cancel(context.Canceled)
	close(run.done)
}

// abort tears the turn down and shows the last committed state again.
func (o *Orchestrator) abort(ctx context.Context, run *turnRun, err error) {
	o.teardownMedia()
	o.view.restore()
	o.setPhase(PhaseAborted)
	o.emit(events.NewTurnAborted(run.id, err))

	reason := "stream"
	switch {
	case errors.Is(err, ErrTurnReset):
		reason = "reset"
	case run.ctx.Err() != nil:
		reason = "cancelled"
	}
	turnsAborted.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("reason", reason)))
	o.render()

	// Cancelled turns were stopped on purpose.
	if run.ctx.Err() != nil {
		return
	}
	o.alert(ctx, err)
}

// turnHandler routes the frames of one run.
type turnHandler struct {
	orchestrator *Orchestrator
	run          *turnRun
}

func (h *turnHandler) OnChunk(ctx context.Context, text string) {
	o := h.orchestrator
	o.emit(events.NewStreamChunk(h.run.id, text))

	if o.liveReveal && text != "" {
		o.view.startReveal()
		o.animator.Enqueue(text)
	}
}

func (h *turnHandler) OnDone(ctx context.Context, state *conversations.State) error {
	o := h.orchestrator
	if state == nil {
		logger.WarnContext(ctx, "done frame without state, keeping the committed state", "turn.id", h.run.id)
		state = o.view.committedState()
	}
	if state == nil {
		state = &conversations.State{}
	}
	return o.finalize(ctx, h.run, state)
}

// finalize presents the final victim line of final and commits final once
// the line was fully revealed.
func (o *Orchestrator) finalize(ctx context.Context, run *turnRun, final *conversations.State) error {
	ctx, span := tracer.Start(ctx, "finalize turn", trace.WithAttributes(attribute.String("turn.id", run.id)))
	defer span.End()

	latest := final.LatestSpoken(conversations.RoleVictim)
	text := ""
	if latest != nil {
		text = cues.Spoken(latest.Content)
	}

	remainder := text
	if revealed := o.animator.Text(); o.liveReveal && revealed != "" && strings.HasPrefix(text, revealed) {
		remainder = strings.TrimPrefix(text, revealed)
	} else {
		o.animator.Reset()
		o.view.restore()
	}
	o.view.holdBack(final.WithoutTrailing(conversations.RoleVictim))
	o.render()

	if text != "" {
		o.setPhase(PhaseAwaitingVoice)
		o.present(ctx, latest)

		o.setPhase(PhaseRevealing)
		o.emit(events.NewTurnRevealing(run.id, text))
		o.view.startReveal()
		o.animator.Enqueue(remainder)

		select {
		case <-o.animator.Drain():
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		o.emit(events.NewRevealDrained(run.id))
	}

	return o.commit(ctx, run, final)
}

// present starts the voice and the effects of latest. Failures only degrade
// the presentation.
func (o *Orchestrator) present(ctx context.Context, latest *conversations.Turn) {
	key := conversations.SpokenKey(latest)

	var duration cues.DurationSource
	switch err := o.speech.Speak(ctx, latest); {
	case err == nil:
		duration = o.speech
		clipDuration, _ := o.speech.Duration()
		o.emit(events.NewVoiceStarted(key, clipDuration))
	case errors.Is(err, errVoiceDisabled), errors.Is(err, errAlreadySpoken):
		o.emit(events.NewVoiceSkipped(key, err.Error(), nil))
	case ctx.Err() != nil:
		o.emit(events.NewVoiceSkipped(key, "cancelled", err))
	default:
		logger.WarnContext(ctx, "voice unavailable, revealing without voice", "error", err)
		span := trace.SpanFromContext(ctx)
		span.AddEvent("voice degraded", trace.WithAttributes(attribute.String("error", err.Error())))
		voiceDegraded.Add(context.WithoutCancel(ctx), 1)
		o.emit(events.NewVoiceSkipped(key, "unavailable", err))
	}

	if o.effects == nil || ctx.Err() != nil {
		return
	}
	plan := cues.NewPlan(latest.Content, latest.SoundEffects).Filter(o.effects.Known)
	o.cueSync.Schedule(context.WithoutCancel(ctx), plan, duration)
}

// commit replaces the view with final unless the run was cancelled.
func (o *Orchestrator) commit(ctx context.Context, run *turnRun, final *conversations.State) error {
	o.mu.Lock()
	if run.ctx.Err() != nil {
		o.mu.Unlock()
		return context.Cause(run.ctx)
	}
	o.phase = PhaseCommitted
	run.committed = true
	o.view.setCommitted(final)
	o.mu.Unlock()

	o.render()
	o.animator.Reset()

	count := final.Count(conversations.RoleScammer)
	turnsCommitted.Add(ctx, 1)
	o.emit(events.NewTurnCommitted(run.id, final.TurnCount))

	if o.audience.hook != nil && o.audience.check(count) {
		if err := panicSafe("audience hook", func() { o.audience.hook.OpenAudienceFlow(ctx, final) }); err != nil {
			logger.ErrorContext(ctx, "audience hook failed", "error", err)
		}
	}
	return nil
}
