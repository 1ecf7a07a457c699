package config

import (
	"errors"
	"testing"
	"time"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("expected default base url, got %q", cfg.BaseURL)
	}
	if cfg.VoiceProvider != VoiceProviderBackend || cfg.AudioBackend != AudioBackendMiniaudio {
		t.Fatalf("expected backend voice on miniaudio, got %q on %q", cfg.VoiceProvider, cfg.AudioBackend)
	}
	if cfg.RevealInterval != 14*time.Millisecond || cfg.AudienceEvery != 3 || cfg.HTTPTimeout != time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.LiveReveal || cfg.Dictation {
		t.Fatalf("expected live reveal and dictation to be off by default")
	}
	if cfg.DictationLanguage != "fr" {
		t.Fatalf("expected french dictation, got %q", cfg.DictationLanguage)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"STAGE_BASE_URL":       "http://stage.local:9000/",
		"VOICE_PROVIDER":       "Deepgram",
		"DEEPGRAM_API_KEY":     "key",
		"DEEPGRAM_VOICE":       "aura-2-hector-fr",
		"AUDIO_BACKEND":        "MiniAudio",
		"EFFECTS_DIR":          "./effects",
		"REVEAL_INTERVAL_MS":   "20",
		"AUDIENCE_EVERY":       "5",
		"HTTP_TIMEOUT_SECONDS": "10",
		"LIVE_REVEAL":          "true",
		"DICTATION":            "1",
		"DICTATION_LANGUAGE":   "fr-CA",
	}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BaseURL != "http://stage.local:9000" {
		t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.BaseURL)
	}
	if cfg.VoiceProvider != VoiceProviderDeepgram || cfg.DeepgramVoice != "aura-2-hector-fr" {
		t.Fatalf("expected deepgram voice, got %+v", cfg)
	}
	if cfg.RevealInterval != 20*time.Millisecond || cfg.AudienceEvery != 5 || cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if !cfg.Dictation || cfg.DictationLanguage != "fr-CA" {
		t.Fatalf("expected dictation in fr-CA, got %+v", cfg)
	}
	if !cfg.LiveReveal || cfg.EffectsDir != "./effects" || cfg.AudioBackend != AudioBackendMiniaudio {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestFromEnvDeepgramWithoutKeyFallsBack(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"VOICE_PROVIDER": "deepgram"}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.VoiceProvider != VoiceProviderBackend {
		t.Fatalf("expected fallback to the backend voice, got %q", cfg.VoiceProvider)
	}
}

func TestFromEnvDictationNeedsDeepgramAndMiniaudio(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "no key", env: map[string]string{"DICTATION": "true"}},
		{name: "portaudio", env: map[string]string{"DICTATION": "true", "DEEPGRAM_API_KEY": "key", "AUDIO_BACKEND": "portaudio"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg, err := FromEnv(envOf(testCase.env))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if cfg.Dictation {
				t.Fatalf("expected dictation to be disabled")
			}
		})
	}
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown voice provider", env: map[string]string{"VOICE_PROVIDER": "elevenlabs"}},
		{name: "unknown audio backend", env: map[string]string{"AUDIO_BACKEND": "alsa"}},
		{name: "non numeric interval", env: map[string]string{"REVEAL_INTERVAL_MS": "fast"}},
		{name: "negative audience", env: map[string]string{"AUDIENCE_EVERY": "-1"}},
		{name: "invalid live reveal", env: map[string]string{"LIVE_REVEAL": "maybe"}},
		{name: "invalid dictation", env: map[string]string{"DICTATION": "maybe"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := FromEnv(envOf(testCase.env)); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
