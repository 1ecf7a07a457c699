package audio

import (
	"sync"
)

// Mixer sums concurrently playing clips into a single mono linear16 stream.
// Output backends pull mixed frames from it.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	voices     []*mixerVoice
}

type mixerVoice struct {
	samples []int16
	pos     int
	volume  float64
	handle  *Handle
}

func NewMixer(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Mixer{sampleRate: sampleRate}
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// Add starts mixing clip at volume and returns its playback handle.
func (m *Mixer) Add(clip *Clip, volume float64) (*Handle, error) {
	if clip.Empty() {
		return nil, ErrEmptyClip
	}

	voice := &mixerVoice{
		samples: clip.Resampled(m.sampleRate).Samples(),
		volume:  volume,
	}
	voice.handle = NewHandle(func() { m.remove(voice) })

	m.mu.Lock()
	m.voices = append(m.voices, voice)
	m.mu.Unlock()

	return voice.handle, nil
}

// Mix fills out with the next frames of every active clip and returns the
// number of clips that contributed. Clips that run out are finished.
func (m *Mixer) Mix(out []int16) int {
	m.mu.Lock()
	accumulator := make([]float64, len(out))
	contributed := len(m.voices)
	var finished []*Handle
	active := m.voices[:0]
	for _, voice := range m.voices {
		n := copyScaled(accumulator, voice.samples[voice.pos:], voice.volume)
		voice.pos += n
		if voice.pos >= len(voice.samples) {
			finished = append(finished, voice.handle)
			continue
		}
		active = append(active, voice)
	}
	clear(m.voices[len(active):])
	m.voices = active
	m.mu.Unlock()

	for i, value := range accumulator {
		out[i] = clampSample(value)
	}
	for _, handle := range finished {
		handle.Finish()
	}
	return contributed
}

// Active returns the number of clips still playing.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// StopAll interrupts every playing clip.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	voices := m.voices
	m.voices = nil
	m.mu.Unlock()

	for _, voice := range voices {
		voice.handle.Stop()
	}
}

func (m *Mixer) remove(target *mixerVoice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, voice := range m.voices {
		if voice == target {
			m.voices = append(m.voices[:i], m.voices[i+1:]...)
			return
		}
	}
}

func copyScaled(dst []float64, src []int16, volume float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] += float64(src[i]) * volume
	}
	return n
}
