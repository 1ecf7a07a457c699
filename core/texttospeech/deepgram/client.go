// Package deepgram synthesizes voice clips with the Deepgram speak websocket.
package deepgram

import (
	"fmt"
	"os"
	"slices"

	"github.com/koscakluka/ema-stage/core/audio"
	"github.com/koscakluka/ema-stage/core/texttospeech"
)

const (
	providerName   = "deepgram"
	defaultBaseURL = "wss://api.deepgram.com"
)

type TextToSpeechClient struct {
	options texttospeech.TextToSpeechOptions
	voice   deepgramVoice
}

func NewTextToSpeechClient(opts ...texttospeech.TextToSpeechOption) (*TextToSpeechClient, error) {
	options := texttospeech.DefaultOptions()
	options.BaseURL = defaultBaseURL
	for _, opt := range opts {
		opt(&options)
	}

	if options.EncodingInfo.Format != audio.EncodingLinear16 {
		return nil, fmt.Errorf("unsupported encoding %q", options.EncodingInfo.Format.Name())
	}

	if options.APIKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		options.APIKey = apiKey
	}

	client := &TextToSpeechClient{options: options, voice: defaultVoice}
	if options.VoiceModel != "" {
		voice := deepgramVoice(options.VoiceModel)
		if !slices.Contains(GetAvailableVoices(), voice) {
			return nil, fmt.Errorf("invalid voice %q", options.VoiceModel)
		}
		client.voice = voice
	}

	return client, nil
}

func (c *TextToSpeechClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}
