package audio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestFromL16ParsesRate(t *testing.T) {
	testCases := []struct {
		name     string
		mimeType string
		expected int
	}{
		{name: "explicit rate", mimeType: "audio/L16;codec=pcm;rate=16000", expected: 16000},
		{name: "spaced rate", mimeType: "audio/l16; rate = 8000", expected: 8000},
		{name: "missing rate", mimeType: "audio/L16", expected: DefaultSampleRate},
		{name: "invalid rate", mimeType: "audio/L16;rate=0", expected: DefaultSampleRate},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			clip := FromL16(make([]byte, 4), testCase.mimeType)
			if clip.Encoding.SampleRate != testCase.expected {
				t.Fatalf("expected rate %d, got %d", testCase.expected, clip.Encoding.SampleRate)
			}
		})
	}
}

func TestClipDuration(t *testing.T) {
	clip := &Clip{
		Encoding: EncodingInfo{SampleRate: 24000, Format: EncodingLinear16, Channels: 1},
		PCM:      make([]byte, 48000),
	}
	if clip.Duration() != time.Second {
		t.Fatalf("expected 1s, got %v", clip.Duration())
	}

	var nilClip *Clip
	if nilClip.Duration() != 0 || !nilClip.Empty() {
		t.Fatalf("expected nil clip to be empty with zero duration")
	}
}

func TestWAVRoundTripKeepsSamples(t *testing.T) {
	info := EncodingInfo{SampleRate: 22050, Format: EncodingLinear16, Channels: 1}
	original := &Clip{Encoding: info, PCM: samplesToPCM([]int16{0, 1200, -1200, 32767, -32768})}

	data, err := EncodeWAV(original.PCM, info)
	if err != nil {
		t.Fatalf("expected no encode error, got %v", err)
	}

	decoded, err := DecodeClip(data, "audio/wav")
	if err != nil {
		t.Fatalf("expected no decode error, got %v", err)
	}
	if decoded.Encoding.SampleRate != 22050 {
		t.Fatalf("expected sample rate 22050, got %d", decoded.Encoding.SampleRate)
	}
	if !bytes.Equal(decoded.PCM, original.PCM) {
		t.Fatalf("expected samples %v, got %v", original.Samples(), decoded.Samples())
	}
}

func TestDecodeClipRejectsGarbage(t *testing.T) {
	if _, err := DecodeClip([]byte("definitely not audio"), "audio/wav"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := DecodeClip(nil, "audio/wav"); !errors.Is(err, ErrEmptyClip) {
		t.Fatalf("expected ErrEmptyClip, got %v", err)
	}
}

func TestScaledClamps(t *testing.T) {
	clip := &Clip{Encoding: GetDefaultEncodingInfo(), PCM: samplesToPCM([]int16{20000, -20000, 100})}

	samples := clip.Scaled(2).Samples()
	expected := []int16{32767, -32768, 200}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Fatalf("expected sample %d to be %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestResampledDownmixesAndConvertsRate(t *testing.T) {
	stereo := &Clip{
		Encoding: EncodingInfo{SampleRate: 48000, Format: EncodingLinear16, Channels: 2},
		PCM:      samplesToPCM([]int16{100, 300, 100, 300, 100, 300, 100, 300}),
	}

	resampled := stereo.Resampled(24000)
	samples := resampled.Samples()
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	for _, sample := range samples {
		if sample != 200 {
			t.Fatalf("expected downmixed sample 200, got %d", sample)
		}
	}
	if resampled.Encoding.Channels != 1 || resampled.Encoding.SampleRate != 24000 {
		t.Fatalf("expected mono 24kHz, got %+v", resampled.Encoding)
	}
}
