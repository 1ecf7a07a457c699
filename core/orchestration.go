package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/koscakluka/ema-stage/core/clock"
	"github.com/koscakluka/ema-stage/core/conversations"
	"github.com/koscakluka/ema-stage/core/cues"
	"github.com/koscakluka/ema-stage/core/events"
	"github.com/koscakluka/ema-stage/core/reveal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrTurnInFlight is returned when a turn is submitted, or the state
	// refreshed, while another turn is being processed. Submit, Refresh and
	// Reset also return it while a reset or a refresh holds the turn slot.
	ErrTurnInFlight = errors.New("a turn is already in flight")
	// ErrTurnReset is the cause of turns aborted by Reset.
	ErrTurnReset = errors.New("turn aborted by reset")
	// ErrClosed is returned by operations on a closed orchestrator.
	ErrClosed = errors.New("orchestrator closed")
	// ErrNoSimulation is returned by operations that need the backend when no
	// SimulationAPI is configured.
	ErrNoSimulation = errors.New("no simulation api configured")
)

// Orchestrator plays the simulated call back to the operator one turn at a
// time. It owns the presentation state, every change of which is pushed to
// the Renderer.
type Orchestrator struct {
	mu    sync.Mutex
	phase Phase
	run   *turnRun
	// maintaining is set while Reset or Refresh hold the turn slot.
	maintaining bool
	closed      bool

	view     view
	speech   *speechPlayer
	audience *audienceTrigger
	animator *reveal.Animator
	cueSync  *cues.Synchronizer

	stream     StreamClient
	simulation SimulationAPI
	effects    Effects
	clock      clock.Clock
	renderer   Renderer
	alerter    Alerter
	handlers   []func(events.Event)
	emit       eventEmitter

	revealInterval   time.Duration
	liveReveal       bool
	healthGatesVoice bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		phase:            PhaseIdle,
		speech:           newSpeechPlayer(),
		audience:         newAudienceTrigger(),
		clock:            clock.Real(),
		emit:             noopEventEmitter,
		healthGatesVoice: true,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.emit = newEventEmitter(o.handlers)
	o.animator = reveal.New(o.clock,
		reveal.WithInterval(o.revealInterval),
		reveal.WithRenderCallback(o.onReveal),
	)

	var effects cues.EffectPlayer
	if o.effects != nil {
		effects = o.effects
	}
	onScheduled, onFired := o.emit.cueCallbacks()
	o.cueSync = cues.NewSynchronizer(o.clock, effects, cues.WithCueCallbacks(onScheduled, onFired))

	return o
}

// Phase returns the current phase of the turn finalizer. It is PhaseIdle
// before the first turn and after a reset, and stays PhaseCommitted or
// PhaseAborted after a turn ended.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Snapshot returns the current view.
func (o *Orchestrator) Snapshot() ViewSnapshot {
	return o.view.snapshot(o.clock.Now())
}

// VoiceEnabled reports whether victim lines are currently spoken.
func (o *Orchestrator) VoiceEnabled() bool {
	return o.speech.Enabled()
}

// Refresh reloads the state from the backend. The latest victim line is
// treated as already spoken.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if o.simulation == nil {
		return ErrNoSimulation
	}

	ctx, span := tracer.Start(ctx, "refresh state")
	defer span.End()

	if _, err := o.claimSlot(false); err != nil {
		return err
	}
	defer o.releaseSlot()

	if o.healthGatesVoice {
		health, err := o.simulation.Health(ctx)
		if err != nil {
			logger.WarnContext(ctx, "health check failed, voice disabled", "error", err)
		}
		o.speech.setEnabled(err == nil && health.VictimVoiceEnabled)
	}
	span.SetAttributes(attribute.Bool("voice.enabled", o.speech.Enabled()))

	state, err := o.simulation.State(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load state: %w", err)
		recordSpanError(ctx, err)
		return err
	}

	o.speech.MarkSpoken(conversations.SpokenKey(state.LatestSpoken(conversations.RoleVictim)))
	o.audience.sync(state.Count(conversations.RoleScammer))
	o.view.setCommitted(state)
	o.render()
	return nil
}

// Reset resets the simulation. A turn in flight is aborted first and every
// sound is stopped.
func (o *Orchestrator) Reset(ctx context.Context) error {
	if o.simulation == nil {
		return ErrNoSimulation
	}

	ctx, span := tracer.Start(ctx, "reset simulation")
	defer span.End()

	run, err := o.claimSlot(true)
	if err != nil {
		return err
	}
	defer o.releaseSlot()

	if run != nil {
		span.AddEvent("abort turn in flight", trace.WithAttributes(attribute.String("turn.id", run.id)))
		run.cancel(ErrTurnReset)
		o.teardownMedia()
		<-run.done
	}

	state, err := o.simulation.Reset(ctx)
	if err != nil {
		err = fmt.Errorf("failed to reset simulation: %w", err)
		recordSpanError(ctx, err)
		return err
	}

	o.teardownMedia()
	o.speech.MarkSpoken("")
	o.audience.sync(state.Count(conversations.RoleScammer))

	o.mu.Lock()
	o.phase = PhaseIdle
	o.mu.Unlock()

	o.view.setCommitted(state)
	o.render()
	return nil
}

// CompleteAudienceFlow allows the audience hook to be called again.
func (o *Orchestrator) CompleteAudienceFlow() {
	o.audience.complete()
}

// Close aborts the turn in flight and stops every sound. Close is
// idempotent.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	run := o.run
	o.mu.Unlock()

	if run != nil {
		run.cancel(ErrClosed)
	}
	o.teardownMedia()
	if run != nil {
		<-run.done
	}
}

// claimSlot reserves the turn slot until releaseSlot, so that no turn starts
// underneath a reset or a refresh. With abortRun the slot is claimed even
// while a turn is in flight, and that run is returned for the caller to
// abort.
func (o *Orchestrator) claimSlot(abortRun bool) (*turnRun, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, ErrClosed
	}
	if o.maintaining || (o.run != nil && !abortRun) {
		return nil, ErrTurnInFlight
	}
	o.maintaining = true
	return o.run, nil
}

func (o *Orchestrator) releaseSlot() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.maintaining = false
}

func (o *Orchestrator) setPhase(phase Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = phase
}

// teardownMedia stops the voice, the effects and the reveal.
func (o *Orchestrator) teardownMedia() {
	o.speech.Stop()
	o.cueSync.Stop()
	o.animator.Reset()
}

func (o *Orchestrator) onReveal(visible string) {
	if o.view.setRevealText(visible) {
		o.render()
	}
}

func (o *Orchestrator) render() {
	if o.renderer == nil {
		return
	}
	o.renderer.Render(o.Snapshot())
}

func (o *Orchestrator) alert(ctx context.Context, err error) {
	if o.alerter == nil {
		logger.ErrorContext(ctx, "turn failed", "error", err)
		return
	}
	o.alerter.Alert(ctx, err)
}
