package cues

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-stage/core/audio"
	"github.com/koscakluka/ema-stage/core/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DurationWait bounds how long Schedule waits for the voice duration.
	DurationWait = 1500 * time.Millisecond

	durationPollInterval = 50 * time.Millisecond

	AmbientVolume = 0.35
	EffectVolume  = 0.9
)

// EffectPlayer starts playback of a tagged effect.
type EffectPlayer interface {
	PlayEffect(ctx context.Context, tag string, volume float64) (audio.Playback, error)
}

// DurationSource reports the duration of the voice audio a plan is synced to,
// once it is known.
type DurationSource interface {
	Duration() (time.Duration, bool)
}

// Synchronizer fires the cues of a plan at their estimated positions along
// the voice audio. Only one plan is active at a time.
type Synchronizer struct {
	mu sync.Mutex

	clock        clock.Clock
	effects      EffectPlayer
	volumes      map[string]float64
	maxDelay     time.Duration
	durationWait time.Duration

	onScheduled func(cue Cue, delay time.Duration)
	onFired     func(cue Cue)

	generation uint64
	timers     []clock.Timer
	playing    []audio.Playback
}

type SynchronizerOption func(*Synchronizer)

// WithVolumes overrides the playback volume of specific tags.
func WithVolumes(volumes map[string]float64) SynchronizerOption {
	return func(s *Synchronizer) {
		for tag, volume := range volumes {
			s.volumes[strings.ToUpper(tag)] = volume
		}
	}
}

func WithMaxDelay(maxDelay time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		if maxDelay > 0 {
			s.maxDelay = maxDelay
		}
	}
}

func WithDurationWait(wait time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		if wait >= 0 {
			s.durationWait = wait
		}
	}
}

// WithCueCallbacks sets functions called when a cue is armed and when it
// fires.
func WithCueCallbacks(onScheduled func(cue Cue, delay time.Duration), onFired func(cue Cue)) SynchronizerOption {
	return func(s *Synchronizer) {
		if onScheduled != nil {
			s.onScheduled = onScheduled
		}
		if onFired != nil {
			s.onFired = onFired
		}
	}
}

func NewSynchronizer(clk clock.Clock, effects EffectPlayer, opts ...SynchronizerOption) *Synchronizer {
	if clk == nil {
		clk = clock.Real()
	}
	s := &Synchronizer{
		clock:        clk,
		effects:      effects,
		volumes:      map[string]float64{},
		maxDelay:     MaxCueDelay,
		durationWait: DurationWait,
		onScheduled:  func(Cue, time.Duration) {},
		onFired:      func(Cue) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VolumeFor returns the playback volume of tag.
func (s *Synchronizer) VolumeFor(tag string) float64 {
	if volume, ok := s.volumes[tag]; ok {
		return volume
	}
	if strings.HasPrefix(tag, "TV_BACKGROUND") {
		return AmbientVolume
	}
	return EffectVolume
}

// Schedule stops the active plan and arms the cues of plan. If voice does not
// report a duration yet, Schedule waits for it in the background for at most
// the configured duration wait before falling back to estimated timing.
// Timing is fixed once the cues are armed.
func (s *Synchronizer) Schedule(ctx context.Context, plan Plan, voice DurationSource) {
	s.Stop()
	if len(plan.Cues) == 0 || s.effects == nil {
		return
	}

	s.mu.Lock()
	gen := s.generation

	duration, known := durationOf(voice)
	if known || voice == nil || s.durationWait == 0 {
		armed := s.armLocked(ctx, gen, plan, duration, known)
		s.mu.Unlock()
		s.reportScheduled(armed)
		return
	}

	waited := time.Duration(0)
	var poll clock.Timer
	poll = s.clock.Every(durationPollInterval, func() {
		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			return
		}

		waited += durationPollInterval
		duration, known := durationOf(voice)
		if !known && waited < s.durationWait {
			s.mu.Unlock()
			return
		}

		poll.Stop()
		s.removeTimerLocked(poll)
		armed := s.armLocked(ctx, gen, plan, duration, known)
		s.mu.Unlock()
		s.reportScheduled(armed)
	})
	s.timers = append(s.timers, poll)
	s.mu.Unlock()
}

// Stop cancels every pending cue and stops effects that are still playing.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	s.generation++
	timers := s.timers
	playing := s.playing
	s.timers = nil
	s.playing = nil
	s.mu.Unlock()

	for _, timer := range timers {
		timer.Stop()
	}
	for _, playback := range playing {
		playback.Stop()
	}
}

// Pending returns the number of armed timers.
func (s *Synchronizer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// armedCue is a cue whose timer was started.
type armedCue struct {
	cue   Cue
	delay time.Duration
}

// armLocked starts a timer per cue. The armed cues are reported by the
// caller once s.mu is released.
func (s *Synchronizer) armLocked(ctx context.Context, gen uint64, plan Plan, duration time.Duration, known bool) []armedCue {
	armed := make([]armedCue, 0, len(plan.Cues))
	for _, cue := range plan.Cues {
		d := delay(cue, duration, known, s.maxDelay)
		var timer clock.Timer
		timer = s.clock.AfterFunc(d, func() { s.fire(ctx, gen, cue, &timer) })
		s.timers = append(s.timers, timer)
		armed = append(armed, armedCue{cue: cue, delay: d})
	}
	return armed
}

func (s *Synchronizer) reportScheduled(armed []armedCue) {
	for _, a := range armed {
		s.onScheduled(a.cue, a.delay)
	}
}

func (s *Synchronizer) fire(ctx context.Context, gen uint64, cue Cue, timer *clock.Timer) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.removeTimerLocked(*timer)
	s.mu.Unlock()

	playback, err := s.effects.PlayEffect(ctx, cue.Tag, s.VolumeFor(cue.Tag))
	if err != nil {
		logger.WarnContext(ctx, "failed to play sound effect", "tag", cue.Tag, "error", err)
		return
	}
	cuesFired.Add(ctx, 1, metric.WithAttributes(attribute.String("cue.tag", cue.Tag)))
	s.onFired(cue)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		playback.Stop()
		return
	}
	s.playing = append(s.playing, playback)
	s.mu.Unlock()
}

func (s *Synchronizer) removeTimerLocked(target clock.Timer) {
	for i, timer := range s.timers {
		if timer == target {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

func durationOf(voice DurationSource) (time.Duration, bool) {
	if voice == nil {
		return 0, false
	}
	return voice.Duration()
}
