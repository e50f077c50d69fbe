// Package audio plays the per-day audio cues.
package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/rock/internal/model"
)

// ErrPlayback marks failures reported by the audio backend.
var ErrPlayback = errors.New("audio playback failure")

// DefaultFiles are the day assets, relative to the assets directory.
var DefaultFiles = []string{
	"chakra_meditation/01-Lam.wav",
	"chakra_meditation/02-Vam.wav",
	"chakra_meditation/03-Ram.wav",
	"chakra_meditation/04-Yam.wav",
	"chakra_meditation/05-Ham.wav",
	"chakra_meditation/06-Om.wav",
	"chakra_meditation/07-Am.wav",
}

// Track is one loaded asset.
type Track interface {
	Play() error
	Stop(fade time.Duration) error
}

// Backend loads assets into playable tracks.
type Backend interface {
	Load(path string) (Track, error)
}

// Cue plays at most one day asset at a time.
type Cue struct {
	mu      sync.Mutex
	backend Backend
	dir     string
	files   []string
	fade    time.Duration
	logger  zerolog.Logger

	current     Track
	currentFile string
}

// New constructs a cue player over a backend.
func New(backend Backend, dir string, fade time.Duration, logger zerolog.Logger) *Cue {
	return &Cue{
		backend: backend,
		dir:     dir,
		files:   DefaultFiles,
		fade:    fade,
		logger:  logger.With().Str("component", "audio").Logger(),
	}
}

// File returns the asset name mapped to a day number.
func File(dayNum int) string {
	return DefaultFiles[model.Slot(dayNum)]
}

// Play loads and plays the asset for dayNum, stopping any asset already playing.
func (c *Cue) Play(dayNum int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stopErr error
	if c.current != nil {
		stopErr = c.stopLocked()
	}

	file := c.files[model.Slot(dayNum)]
	track, err := c.backend.Load(filepath.Join(c.dir, file))
	if err != nil {
		return errors.Join(stopErr, fmt.Errorf("%w: load %s: %v", ErrPlayback, file, err))
	}
	if err := track.Play(); err != nil {
		return errors.Join(stopErr, fmt.Errorf("%w: play %s: %v", ErrPlayback, file, err))
	}
	c.current = track
	c.currentFile = file
	c.logger.Info().Int("day", dayNum).Str("file", file).Msg("playing sound")
	return stopErr
}

// Stop fades out and releases the current asset. It is a no-op when nothing plays.
func (c *Cue) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.stopLocked()
}

// Playing returns the asset currently playing, or "".
func (c *Cue) Playing() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFile
}

func (c *Cue) stopLocked() error {
	track, file := c.current, c.currentFile
	c.current = nil
	c.currentFile = ""
	if err := track.Stop(c.fade); err != nil {
		return fmt.Errorf("%w: stop %s: %v", ErrPlayback, file, err)
	}
	c.logger.Info().Str("file", file).Msg("stopping sound")
	return nil
}
