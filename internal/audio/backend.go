package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ExecBackend plays each track with an external player process.
type ExecBackend struct {
	command []string
}

// NewExecBackend parses a player command line such as "aplay -q".
func NewExecBackend(player string) (*ExecBackend, error) {
	parts := strings.Fields(player)
	if len(parts) == 0 {
		return nil, fmt.Errorf("player command is empty")
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, fmt.Errorf("player %q not found: %w", parts[0], err)
	}
	return &ExecBackend{command: parts}, nil
}

// Load implements Backend.
func (b *ExecBackend) Load(path string) (Track, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return &execTrack{command: b.command, path: path}, nil
}

type execTrack struct {
	command []string
	path    string

	cmd  *exec.Cmd
	done chan struct{}
}

func (t *execTrack) Play() error {
	if t.cmd != nil {
		return fmt.Errorf("track already playing")
	}
	cmd := exec.Command(t.command[0], append(t.command[1:], t.path)...)
	if err := cmd.Start(); err != nil {
		return err
	}
	t.cmd = cmd
	t.done = make(chan struct{})
	go func() {
		// The exit status of an interrupted player is not interesting.
		_ = cmd.Wait()
		close(t.done)
	}()
	return nil
}

func (t *execTrack) Stop(fade time.Duration) error {
	if t.cmd == nil {
		return nil
	}
	defer func() {
		t.cmd = nil
	}()
	select {
	case <-t.done:
		return nil
	default:
	}
	if err := t.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return t.cmd.Process.Kill()
	}
	timer := time.NewTimer(fade)
	defer timer.Stop()
	select {
	case <-t.done:
		return nil
	case <-timer.C:
		if err := t.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
		<-t.done
		return nil
	}
}

// SilentBackend records cue activity without producing sound.
type SilentBackend struct {
	mu     sync.Mutex
	events []string
}

// NewSilentBackend returns an empty recorder.
func NewSilentBackend() *SilentBackend {
	return &SilentBackend{}
}

// Load implements Backend.
func (b *SilentBackend) Load(path string) (Track, error) {
	return &silentTrack{backend: b, name: filepath.Base(path)}, nil
}

// Events returns the recorded "play <file>" and "stop <file>" entries.
func (b *SilentBackend) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

func (b *SilentBackend) record(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

type silentTrack struct {
	backend *SilentBackend
	name    string
}

func (t *silentTrack) Play() error {
	t.backend.record("play " + t.name)
	return nil
}

func (t *silentTrack) Stop(time.Duration) error {
	t.backend.record("stop " + t.name)
	return nil
}
