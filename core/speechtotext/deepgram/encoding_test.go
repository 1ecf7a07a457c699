package deepgram

import (
	"testing"

	"github.com/koscakluka/ema-stage/core/audio"
)

func audioEncoding(sampleRate int) audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: sampleRate, Format: audio.EncodingLinear16, Channels: 1}
}

func TestConvertEncoding(t *testing.T) {
	testCases := []struct {
		name     string
		encoding audio.EncodingInfo
		valid    bool
	}{
		{name: "linear16 24kHz", encoding: audioEncoding(24000), valid: true},
		{name: "linear16 48kHz", encoding: audioEncoding(48000), valid: true},
		{name: "linear16 22.05kHz", encoding: audioEncoding(22050), valid: false},
		{name: "mulaw 8kHz", encoding: audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw}, valid: true},
		{name: "alaw 16kHz", encoding: audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingALaw}, valid: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			converted, err := convertEncoding(testCase.encoding)
			if testCase.valid != (err == nil) {
				t.Fatalf("expected valid=%v, got %v", testCase.valid, err)
			}
			if testCase.valid && converted.channels != 1 {
				t.Fatalf("expected mono, got %d channels", converted.channels)
			}
		})
	}
}
