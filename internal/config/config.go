// Package config loads the stage configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	VoiceProviderBackend  = "backend"
	VoiceProviderDeepgram = "deepgram"
	VoiceProviderNone     = "none"

	AudioBackendMiniaudio = "miniaudio"
	AudioBackendPortaudio = "portaudio"
	AudioBackendNone      = "none"
)

const (
	defaultBaseURL        = "http://127.0.0.1:8000"
	defaultAudienceEvery  = 3
	defaultRevealInterval = 14 * time.Millisecond
	defaultHTTPTimeout    = 60 * time.Second
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the stage configuration.
type Config struct {
	BaseURL string

	VoiceProvider  string
	DeepgramAPIKey string
	DeepgramVoice  string

	AudioBackend string
	EffectsDir   string

	// Dictation needs a Deepgram key and the miniaudio backend.
	Dictation         bool
	DictationLanguage string

	RevealInterval time.Duration
	LiveReveal     bool
	AudienceEvery  int
	HTTPTimeout    time.Duration
}

// Load reads a .env file, if there is one, and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv, applying defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		BaseURL:        strings.TrimRight(stringOr(getenv("STAGE_BASE_URL"), defaultBaseURL), "/"),
		VoiceProvider:  strings.ToLower(stringOr(getenv("VOICE_PROVIDER"), VoiceProviderBackend)),
		DeepgramAPIKey: getenv("DEEPGRAM_API_KEY"),
		DeepgramVoice:  getenv("DEEPGRAM_VOICE"),
		AudioBackend:   strings.ToLower(stringOr(getenv("AUDIO_BACKEND"), AudioBackendMiniaudio)),
		EffectsDir:     getenv("EFFECTS_DIR"),

		DictationLanguage: stringOr(getenv("DICTATION_LANGUAGE"), "fr"),
	}

	var errs []error
	var err error

	if cfg.RevealInterval, err = millisecondsOr(getenv("REVEAL_INTERVAL_MS"), defaultRevealInterval); err != nil {
		errs = append(errs, fmt.Errorf("REVEAL_INTERVAL_MS: %w", err))
	}
	if cfg.HTTPTimeout, err = secondsOr(getenv("HTTP_TIMEOUT_SECONDS"), defaultHTTPTimeout); err != nil {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT_SECONDS: %w", err))
	}
	if cfg.AudienceEvery, err = positiveIntOr(getenv("AUDIENCE_EVERY"), defaultAudienceEvery); err != nil {
		errs = append(errs, fmt.Errorf("AUDIENCE_EVERY: %w", err))
	}
	if value := getenv("LIVE_REVEAL"); value != "" {
		if cfg.LiveReveal, err = strconv.ParseBool(value); err != nil {
			errs = append(errs, fmt.Errorf("LIVE_REVEAL: %w", err))
		}
	}

	if value := getenv("DICTATION"); value != "" {
		if cfg.Dictation, err = strconv.ParseBool(value); err != nil {
			errs = append(errs, fmt.Errorf("DICTATION: %w", err))
		}
	}
	if cfg.Dictation && (cfg.DeepgramAPIKey == "" || cfg.AudioBackend != AudioBackendMiniaudio) {
		log.Println("Warning: dictation needs DEEPGRAM_API_KEY and the miniaudio backend - disabled")
		cfg.Dictation = false
	}

	switch cfg.VoiceProvider {
	case VoiceProviderBackend, VoiceProviderNone:
	case VoiceProviderDeepgram:
		if cfg.DeepgramAPIKey == "" {
			log.Println("Warning: DEEPGRAM_API_KEY not set - falling back to the backend voice")
			cfg.VoiceProvider = VoiceProviderBackend
		}
	default:
		errs = append(errs, fmt.Errorf("VOICE_PROVIDER: unknown provider %q", cfg.VoiceProvider))
	}

	switch cfg.AudioBackend {
	case AudioBackendMiniaudio, AudioBackendPortaudio, AudioBackendNone:
	default:
		errs = append(errs, fmt.Errorf("AUDIO_BACKEND: unknown backend %q", cfg.AudioBackend))
	}

	if err := errors.Join(errs...); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func stringOr(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}

func positiveIntOr(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, err
	}
	if n <= 0 {
		return fallback, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func millisecondsOr(value string, fallback time.Duration) (time.Duration, error) {
	n, err := positiveIntOr(value, 0)
	if err != nil || n == 0 {
		return fallback, err
	}
	return time.Duration(n) * time.Millisecond, nil
}

func secondsOr(value string, fallback time.Duration) (time.Duration, error) {
	n, err := positiveIntOr(value, 0)
	if err != nil || n == 0 {
		return fallback, err
	}
	return time.Duration(n) * time.Second, nil
}
