package deepgram

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/koscakluka/ema-stage/core/audio"
)

type encodingInfo struct {
	sampleRate int
	format     string
	channels   int
}

func (e encodingInfo) apply(values url.Values) {
	values.Set("encoding", e.format)
	values.Set("sample_rate", strconv.Itoa(e.sampleRate))
	values.Set("channels", strconv.Itoa(e.channels))
}

func convertEncoding(encoding audio.EncodingInfo) (encodingInfo, error) {
	converted := encodingInfo{sampleRate: encoding.SampleRate, format: encoding.Format.Name(), channels: max(encoding.Channels, 1)}

	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return encodingInfo{}, fmt.Errorf("unsupported sample rate %d", encoding.SampleRate)
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
	case audio.EncodingALaw, audio.EncodingMulaw:
		if encoding.SampleRate != 8000 {
			return encodingInfo{}, fmt.Errorf("unsupported sample rate %d for %s", encoding.SampleRate, encoding.Format.Name())
		}
	default:
		return encodingInfo{}, fmt.Errorf("unsupported encoding %q", encoding.Format.Name())
	}

	return converted, nil
}
