package orchestration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/koscakluka/ema-stage/core/audio"
	"github.com/koscakluka/ema-stage/core/conversations"
	"github.com/koscakluka/ema-stage/core/cues"
	"github.com/koscakluka/ema-stage/core/texttospeech"
)

var (
	errVoiceDisabled = errors.New("voice disabled")
	errAlreadySpoken = errors.New("line already spoken")
)

// speechPlayer speaks victim lines, each at most once per session.
type speechPlayer struct {
	mu sync.Mutex

	voice  texttospeech.Voice
	player audio.Player

	enabled       bool
	lastSpokenKey string

	active   audio.Playback
	duration time.Duration
	known    bool
}

func newSpeechPlayer() *speechPlayer {
	return &speechPlayer{player: audio.Silent{}}
}

func (p *speechPlayer) setEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

func (p *speechPlayer) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled && p.voice != nil
}

// MarkSpoken records key as spoken without playing anything.
func (p *speechPlayer) MarkSpoken(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSpokenKey = key
}

func (p *speechPlayer) LastSpokenKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSpokenKey
}

// Speak synthesizes and starts playing turn. The turn is only recorded as
// spoken once playback started. Playback is not bound to ctx, it runs until
// it finishes or Stop is called.
func (p *speechPlayer) Speak(ctx context.Context, turn *conversations.Turn) error {
	key := conversations.SpokenKey(turn)

	p.mu.Lock()
	voice, player, enabled, lastKey := p.voice, p.player, p.enabled, p.lastSpokenKey
	p.mu.Unlock()

	if !enabled || voice == nil {
		return errVoiceDisabled
	}
	if key == "" || key == lastKey {
		return errAlreadySpoken
	}

	clip, err := voice.Synthesize(ctx, cues.Spoken(turn.Content))
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.Stop()
	playback, err := player.Play(context.WithoutCancel(ctx), clip, 1)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.active = playback
	p.duration, p.known = clip.Duration(), true
	p.lastSpokenKey = key
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		p.Stop()
		return err
	}

	go func() {
		<-playback.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.active == playback {
			p.active = nil
		}
	}()
	return nil
}

// Duration reports the length of the line being played.
func (p *speechPlayer) Duration() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration, p.known
}

// Playing reports whether a line is being played.
func (p *speechPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Stop interrupts the line being played.
func (p *speechPlayer) Stop() {
	p.mu.Lock()
	active := p.active
	p.active = nil
	p.duration, p.known = 0, false
	p.mu.Unlock()

	if active != nil {
		active.Stop()
	}
}
