package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/ema-stage/core/audio"
	"github.com/koscakluka/ema-stage/core/clock"
	"github.com/koscakluka/ema-stage/core/conversations"
	"github.com/koscakluka/ema-stage/core/cues"
	"github.com/koscakluka/ema-stage/core/events"
	"github.com/koscakluka/ema-stage/core/simulation"
	"github.com/koscakluka/ema-stage/core/texttospeech"
	"github.com/koscakluka/ema-stage/core/turnstream"
)

type OrchestratorOption func(*Orchestrator)

// StreamClient streams one turn of the simulation.
type StreamClient interface {
	StreamStep(ctx context.Context, message string, handler turnstream.Handler) error
}

func WithStreamClient(client StreamClient) OrchestratorOption {
	return func(o *Orchestrator) { o.stream = client }
}

// SimulationAPI is the part of the backend the orchestrator reads state from.
type SimulationAPI interface {
	Health(ctx context.Context) (simulation.Health, error)
	State(ctx context.Context) (*conversations.State, error)
	Reset(ctx context.Context) (*conversations.State, error)
}

func WithSimulationAPI(api SimulationAPI) OrchestratorOption {
	return func(o *Orchestrator) { o.simulation = api }
}

// WithVoice sets the voice used to speak victim lines.
func WithVoice(voice texttospeech.Voice) OrchestratorOption {
	return func(o *Orchestrator) { o.speech.voice = voice }
}

// WithAudioPlayer sets the output voice clips are played on.
func WithAudioPlayer(player audio.Player) OrchestratorOption {
	return func(o *Orchestrator) { o.speech.player = player }
}

// WithVoiceEnabled sets whether victim lines are spoken before the first
// refresh.
func WithVoiceEnabled(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) { o.speech.setEnabled(enabled) }
}

// WithHealthVoiceGate controls whether Refresh enables voice from the
// backend health report. It is on by default. Turn it off for voices that
// do not go through the backend.
func WithHealthVoiceGate(gated bool) OrchestratorOption {
	return func(o *Orchestrator) { o.healthGatesVoice = gated }
}

// Effects plays the sound effects of a line.
type Effects interface {
	cues.EffectPlayer
	Known(tag string) bool
}

func WithEffects(effects Effects) OrchestratorOption {
	return func(o *Orchestrator) { o.effects = effects }
}

// WithClock sets the clock driving the reveal and cue timers.
func WithClock(clk clock.Clock) OrchestratorOption {
	return func(o *Orchestrator) {
		if clk != nil {
			o.clock = clk
		}
	}
}

// Renderer draws the view. Render is called after every visible
// transition, possibly from several goroutines.
type Renderer interface {
	Render(snapshot ViewSnapshot)
}

type RendererFunc func(snapshot ViewSnapshot)

func (f RendererFunc) Render(snapshot ViewSnapshot) { f(snapshot) }

func WithRenderer(renderer Renderer) OrchestratorOption {
	return func(o *Orchestrator) { o.renderer = renderer }
}

// Alerter surfaces turn failures to the operator.
type Alerter interface {
	Alert(ctx context.Context, err error)
}

type AlerterFunc func(ctx context.Context, err error)

func (f AlerterFunc) Alert(ctx context.Context, err error) { f(ctx, err) }

func WithAlerter(alerter Alerter) OrchestratorOption {
	return func(o *Orchestrator) { o.alerter = alerter }
}

// AudienceHook is called when enough scammer turns were committed to offer
// the audience a vote. It must not block. The hook is not called again until
// [Orchestrator.CompleteAudienceFlow].
type AudienceHook interface {
	OpenAudienceFlow(ctx context.Context, state *conversations.State)
}

type AudienceHookFunc func(ctx context.Context, state *conversations.State)

func (f AudienceHookFunc) OpenAudienceFlow(ctx context.Context, state *conversations.State) {
	f(ctx, state)
}

func WithAudienceHook(hook AudienceHook) OrchestratorOption {
	return func(o *Orchestrator) { o.audience.hook = hook }
}

// WithAudienceEvery sets after how many scammer turns the audience hook is
// called.
func WithAudienceEvery(every int) OrchestratorOption {
	return func(o *Orchestrator) {
		if every > 0 {
			o.audience.every = every
		}
	}
}

// WithEventHandler registers a handler for the turn playback events.
//
// Handlers run inline, on the goroutine that caused the event, and should
// not block.
func WithEventHandler(handler func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		if handler != nil {
			o.handlers = append(o.handlers, handler)
		}
	}
}

func WithRevealInterval(interval time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.revealInterval = interval }
}

// WithLiveReveal starts revealing streamed chunks as they arrive instead of
// waiting for the final line. When the final line does not continue what was
// already revealed, the reveal restarts from the final line.
func WithLiveReveal(live bool) OrchestratorOption {
	return func(o *Orchestrator) { o.liveReveal = live }
}
