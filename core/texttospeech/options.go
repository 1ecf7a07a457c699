package texttospeech

import (
	"net/http"
	"strings"

	"github.com/koscakluka/ema-stage/core/audio"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type TextToSpeechOptions struct {
	HTTPClient   *http.Client
	BaseURL      string
	EncodingInfo audio.EncodingInfo
	// VoiceModel selects the provider voice, providers fall back to their
	// default when empty
	VoiceModel string
	APIKey     string
}

type TextToSpeechOption func(*TextToSpeechOptions)

// DefaultOptions returns options with an instrumented HTTP client and the
// default encoding.
func DefaultOptions() TextToSpeechOptions {
	return TextToSpeechOptions{
		HTTPClient:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		EncodingInfo: audio.GetDefaultEncodingInfo(),
	}
}

func WithHTTPClient(client *http.Client) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if client != nil {
			o.HTTPClient = client
		}
	}
}

func WithBaseURL(baseURL string) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

func WithVoiceModel(model string) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.VoiceModel = model }
}

func WithAPIKey(apiKey string) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.APIKey = apiKey }
}
