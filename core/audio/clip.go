package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyClip         = errors.New("audio clip is empty")
)

const wavPCMFormat = 1

var l16RatePattern = regexp.MustCompile(`(?i)rate\s*=\s*(\d+)`)

// Clip is a fully decoded, little-endian linear16 audio payload.
type Clip struct {
	Encoding EncodingInfo
	PCM      []byte
}

func (c *Clip) Empty() bool {
	return c == nil || len(c.PCM) == 0
}

func (c *Clip) Duration() time.Duration {
	if c == nil {
		return 0
	}
	return c.Encoding.Duration(len(c.PCM))
}

// Samples returns the interleaved samples of the clip.
func (c *Clip) Samples() []int16 {
	if c == nil {
		return nil
	}

	samples := make([]int16, len(c.PCM)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(c.PCM[i*2:]))
	}
	return samples
}

// Scaled returns a copy of the clip with every sample multiplied by volume.
func (c *Clip) Scaled(volume float64) *Clip {
	if c == nil {
		return nil
	}

	samples := c.Samples()
	for i, sample := range samples {
		samples[i] = clampSample(float64(sample) * volume)
	}
	return &Clip{Encoding: c.Encoding, PCM: samplesToPCM(samples)}
}

// Resampled returns the clip converted to a mono stream at sampleRate.
func (c *Clip) Resampled(sampleRate int) *Clip {
	if c == nil {
		return nil
	}

	channels := c.Encoding.channels()
	samples := c.Samples()
	mono := samples
	if channels > 1 {
		mono = make([]int16, len(samples)/channels)
		for i := range mono {
			sum := 0
			for ch := range channels {
				sum += int(samples[i*channels+ch])
			}
			mono[i] = int16(sum / channels)
		}
	}

	if c.Encoding.SampleRate == sampleRate || c.Encoding.SampleRate <= 0 || len(mono) == 0 {
		return &Clip{
			Encoding: EncodingInfo{SampleRate: sampleRate, Format: EncodingLinear16, Channels: 1},
			PCM:      samplesToPCM(mono),
		}
	}

	ratio := float64(c.Encoding.SampleRate) / float64(sampleRate)
	out := make([]int16, int(float64(len(mono))/ratio))
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		next := idx + 1
		if next >= len(mono) {
			next = len(mono) - 1
		}
		out[i] = clampSample(float64(mono[idx])*(1-frac) + float64(mono[next])*frac)
	}

	return &Clip{
		Encoding: EncodingInfo{SampleRate: sampleRate, Format: EncodingLinear16, Channels: 1},
		PCM:      samplesToPCM(out),
	}
}

// DecodeClip decodes an audio payload according to its MIME type. Raw
// `audio/L16` payloads are wrapped as mono linear16 at the rate named in the
// MIME parameters, anything else is read as WAV.
func DecodeClip(data []byte, mimeType string) (*Clip, error) {
	if len(data) == 0 {
		return nil, ErrEmptyClip
	}

	if strings.Contains(strings.ToLower(mimeType), "audio/l16") {
		return FromL16(data, mimeType), nil
	}

	return DecodeWAV(bytes.NewReader(data))
}

// FromL16 wraps raw 16-bit PCM. The sample rate is parsed from the `rate=`
// parameter of mimeType and defaults to DefaultSampleRate.
func FromL16(pcm []byte, mimeType string) *Clip {
	rate := DefaultSampleRate
	if match := l16RatePattern.FindStringSubmatch(mimeType); match != nil {
		if parsed, err := strconv.Atoi(match[1]); err == nil && parsed > 0 {
			rate = parsed
		}
	}

	return &Clip{
		Encoding: EncodingInfo{SampleRate: rate, Format: EncodingLinear16, Channels: 1},
		PCM:      pcm[:len(pcm)-len(pcm)%2],
	}
}

// DecodeWAV reads a PCM WAV file into a linear16 clip. Sample depths other
// than 16 bits are rescaled.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrUnsupportedFormat
	}

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	if len(buffer.Data) == 0 {
		return nil, ErrEmptyClip
	}

	samples := make([]int16, len(buffer.Data))
	for i, value := range buffer.Data {
		samples[i] = toLinear16(value, int(decoder.BitDepth))
	}

	return &Clip{
		Encoding: EncodingInfo{
			SampleRate: int(decoder.SampleRate),
			Format:     EncodingLinear16,
			Channels:   int(decoder.NumChans),
		},
		PCM: samplesToPCM(samples),
	}, nil
}

// EncodeWAV writes linear16 PCM as a WAV file.
func EncodeWAV(pcm []byte, info EncodingInfo) ([]byte, error) {
	if info.Format != EncodingLinear16 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, info.Format.Name())
	}

	clip := Clip{Encoding: info, PCM: pcm}
	samples := clip.Samples()
	data := make([]int, len(samples))
	for i, sample := range samples {
		data[i] = int(sample)
	}

	out := &memoryFile{}
	encoder := wav.NewEncoder(out, info.SampleRate, 16, info.channels(), wavPCMFormat)
	if err := encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: info.channels(), SampleRate: info.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return nil, fmt.Errorf("failed to write wav samples: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}

	return out.data, nil
}

func toLinear16(value, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		return int16((value - 128) << 8)
	case bitDepth > 16:
		return int16(value >> (bitDepth - 16))
	default:
		return int16(value)
	}
}

func clampSample(value float64) int16 {
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(value))))
}

func samplesToPCM(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}
	return pcm
}

// memoryFile is an in-memory io.WriteSeeker, the wav encoder seeks back to
// patch chunk sizes once all samples are written.
type memoryFile struct {
	data []byte
	pos  int
}

func (f *memoryFile) Write(p []byte) (int, error) {
	end := f.pos + len(p)
	if end > len(f.data) {
		f.data = append(f.data, make([]byte, end-len(f.data))...)
	}
	copy(f.data[f.pos:], p)
	f.pos = end
	return len(p), nil
}

func (f *memoryFile) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(f.pos) + offset
	case io.SeekEnd:
		next = int64(len(f.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	f.pos = int(next)
	return next, nil
}
