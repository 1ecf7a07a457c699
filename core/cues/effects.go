package cues

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/koscakluka/ema-stage/core/audio"
)

var ErrUnknownEffect = errors.New("unknown sound effect")

// KnownTags are the effect tags the backend can emit.
var KnownTags = []string{
	"DOG_BARKING",
	"DOORBELL",
	"COUGHING_FIT",
	"TV_BACKGROUND_BFMTV",
}

// EffectLibrary holds decoded effect clips by tag and plays them on an
// audio.Player.
type EffectLibrary struct {
	player audio.Player
	clips  map[string]*audio.Clip
}

func NewEffectLibrary(player audio.Player, clips map[string]*audio.Clip) *EffectLibrary {
	library := &EffectLibrary{player: player, clips: map[string]*audio.Clip{}}
	for tag, clip := range clips {
		library.clips[strings.ToUpper(tag)] = clip
	}
	return library
}

// LoadEffects reads every `<tag>.wav` file in dir, the file name lower-cased
// tag. Files that cannot be decoded are skipped and reported together.
func LoadEffects(dir string, player audio.Player) (*EffectLibrary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read effects directory: %w", err)
	}

	library := NewEffectLibrary(player, nil)
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".wav") {
			continue
		}

		clip, err := loadClip(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		tag := strings.ToUpper(strings.TrimSuffix(name, filepath.Ext(name)))
		library.clips[tag] = clip
	}

	return library, errors.Join(errs...)
}

func loadClip(path string) (*audio.Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return audio.DecodeWAV(file)
}

func (l *EffectLibrary) Known(tag string) bool {
	if l == nil {
		return false
	}
	_, ok := l.clips[strings.ToUpper(tag)]
	return ok
}

// Tags returns the sorted tags that have a clip.
func (l *EffectLibrary) Tags() []string {
	if l == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(l.clips))
}

// Missing returns the KnownTags without a clip.
func (l *EffectLibrary) Missing() []string {
	var missing []string
	for _, tag := range KnownTags {
		if !l.Known(tag) {
			missing = append(missing, tag)
		}
	}
	return missing
}

func (l *EffectLibrary) PlayEffect(ctx context.Context, tag string, volume float64) (audio.Playback, error) {
	clip, ok := l.clips[strings.ToUpper(tag)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, tag)
	}
	if l.player == nil {
		return nil, audio.ErrPlaybackBlocked
	}

	return l.player.Play(ctx, clip, volume)
}
