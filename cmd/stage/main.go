// Command stage plays the simulated scam call in the terminal: the operator
// types the scammer lines and the victim answers are revealed, voiced and
// sound-tracked as they come back from the backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-stage/core"
	"github.com/koscakluka/ema-stage/core/audio"
	"github.com/koscakluka/ema-stage/core/audio/miniaudio"
	"github.com/koscakluka/ema-stage/core/audio/portaudio"
	"github.com/koscakluka/ema-stage/core/cues"
	"github.com/koscakluka/ema-stage/core/dictation"
	"github.com/koscakluka/ema-stage/core/simulation"
	sttdeepgram "github.com/koscakluka/ema-stage/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-stage/core/texttospeech"
	"github.com/koscakluka/ema-stage/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-stage/core/texttospeech/voiceapi"
	"github.com/koscakluka/ema-stage/core/turnstream"
	"github.com/koscakluka/ema-stage/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const portaudioBufferSize = 1024

func main() {
	printSchemas := flag.Bool("schema", false, "print the JSON schemas of the stream payloads and exit")
	logFile := flag.String("log", "", "write logs to this file while the TUI is running")
	flag.Parse()

	if *printSchemas {
		if err := writeSchemas(os.Stdout); err != nil {
			log.Fatalf("failed to write schemas: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := run(cfg, *logFile); err != nil {
		log.Fatal(err)
	}
}

func writeSchemas(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(turnstream.Schemas())
}

func run(cfg config.Config, logFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if logFile != "" {
		f, err := tea.LogToFile(logFile, "stage")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
	}

	player, closePlayer, err := openPlayer(cfg.AudioBackend)
	if err != nil {
		log.Printf("Warning: audio output unavailable, running silent: %v", err)
		player, closePlayer = audio.Silent{}, func() {}
	}
	defer closePlayer()

	// Requests get a deadline, the turn stream is only bound to ctx.
	requests := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	streaming := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	simulationClient := simulation.NewClient(cfg.BaseURL, simulation.WithHTTPClient(requests))
	bridge := &programBridge{}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithStreamClient(turnstream.NewClient(cfg.BaseURL, turnstream.WithHTTPClient(streaming))),
		orchestration.WithSimulationAPI(simulationClient),
		orchestration.WithAudioPlayer(player),
		orchestration.WithRenderer(bridge),
		orchestration.WithAlerter(bridge),
		orchestration.WithAudienceHook(bridge),
		orchestration.WithAudienceEvery(cfg.AudienceEvery),
		orchestration.WithEventHandler(bridge.HandleEvent),
		orchestration.WithRevealInterval(cfg.RevealInterval),
		orchestration.WithLiveReveal(cfg.LiveReveal),
	}
	opts = append(opts, voiceOptions(cfg, requests)...)

	if cfg.EffectsDir != "" {
		effects, err := cues.LoadEffects(cfg.EffectsDir, player)
		if err != nil {
			log.Printf("Warning: some sound effects could not be loaded: %v", err)
		}
		if effects != nil {
			log.Printf("Loaded sound effects: %s", strings.Join(effects.Tags(), ", "))
			if missing := effects.Missing(); len(missing) > 0 {
				log.Printf("Warning: no sound effect file for %s", strings.Join(missing, ", "))
			}
			opts = append(opts, orchestration.WithEffects(effects))
		}
	}

	orchestrator := orchestration.NewOrchestrator(opts...)
	defer orchestrator.Close()

	m := newModel(ctx, orchestrator, simulationClient)
	if dictator := openDictation(cfg, player); dictator != nil {
		m.dictation = dictator
		m.dictationCallbacks = bridge.dictationCallbacks()
		defer func() {
			if dictator.Active() {
				_ = dictator.Stop()
			}
		}()
	}

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.program = program

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("stage failed: %w", err)
	}
	return nil
}

func openPlayer(backend string) (audio.Player, func(), error) {
	switch backend {
	case config.AudioBackendMiniaudio:
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case config.AudioBackendPortaudio:
		client, err := portaudio.NewClient(portaudioBufferSize)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		return audio.Silent{}, func() {}, nil
	}
}

// openDictation returns nil when dictation is disabled or the output cannot
// record.
func openDictation(cfg config.Config, player audio.Player) *dictation.Dictation {
	if !cfg.Dictation {
		return nil
	}
	recorder, ok := player.(dictation.Recorder)
	if !ok {
		log.Printf("Warning: audio backend %q cannot record, dictation disabled", cfg.AudioBackend)
		return nil
	}

	transcriber, err := sttdeepgram.NewTranscriptionClient(cfg.DeepgramAPIKey)
	if err != nil {
		log.Printf("Warning: dictation disabled: %v", err)
		return nil
	}
	return dictation.New(recorder, transcriber, dictation.WithLanguage(cfg.DictationLanguage))
}

// voiceOptions picks the victim voice. The backend voice follows the health
// report, a Deepgram voice is always on.
func voiceOptions(cfg config.Config, client *http.Client) []orchestration.OrchestratorOption {
	switch cfg.VoiceProvider {
	case config.VoiceProviderDeepgram:
		voice, err := deepgram.NewTextToSpeechClient(
			texttospeech.WithAPIKey(cfg.DeepgramAPIKey),
			texttospeech.WithVoiceModel(cfg.DeepgramVoice),
		)
		if err != nil {
			log.Printf("Warning: deepgram voice unavailable, falling back to the backend voice: %v", err)
			break
		}
		return []orchestration.OrchestratorOption{
			orchestration.WithVoice(voice),
			orchestration.WithVoiceEnabled(true),
			orchestration.WithHealthVoiceGate(false),
		}
	case config.VoiceProviderNone:
		return []orchestration.OrchestratorOption{
			orchestration.WithVoiceEnabled(false),
			orchestration.WithHealthVoiceGate(false),
		}
	}

	voice := voiceapi.NewClient(
		texttospeech.WithBaseURL(cfg.BaseURL),
		texttospeech.WithHTTPClient(client),
	)
	return []orchestration.OrchestratorOption{orchestration.WithVoice(voice)}
}
