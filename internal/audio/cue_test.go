package audio

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFileMapping(t *testing.T) {
	tests := []struct {
		day  int
		want string
	}{
		{day: 1, want: "chakra_meditation/01-Lam.wav"},
		{day: 4, want: "chakra_meditation/04-Yam.wav"},
		{day: 7, want: "chakra_meditation/07-Am.wav"},
		{day: 8, want: "chakra_meditation/07-Am.wav"},
		{day: 9, want: "chakra_meditation/01-Lam.wav"},
	}
	for _, tt := range tests {
		if got := File(tt.day); got != tt.want {
			t.Fatalf("File(%d) = %q want %q", tt.day, got, tt.want)
		}
	}
}

func TestPlayStopsPreviousTrack(t *testing.T) {
	backend := NewSilentBackend()
	cue := New(backend, "/assets", time.Second, zerolog.Nop())

	if err := cue.Play(1); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := cue.Play(2); err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := cue.Playing(); got != "chakra_meditation/02-Vam.wav" {
		t.Fatalf("unexpected current file %q", got)
	}
	if err := cue.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := cue.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	want := []string{"play 01-Lam.wav", "stop 01-Lam.wav", "play 02-Vam.wav", "stop 02-Vam.wav"}
	if got := backend.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v want %v", got, want)
	}
	if cue.Playing() != "" {
		t.Fatalf("expected nothing playing after stop")
	}
}

type brokenBackend struct{}

func (brokenBackend) Load(string) (Track, error) {
	return nil, errors.New("no such file")
}

func TestLoadFailureIsPlaybackError(t *testing.T) {
	cue := New(brokenBackend{}, "/assets", 0, zerolog.Nop())
	err := cue.Play(3)
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("expected ErrPlayback, got %v", err)
	}
	if cue.Playing() != "" {
		t.Fatalf("expected nothing playing after failed load")
	}
}

func TestExecBackendRejectsEmptyCommand(t *testing.T) {
	if _, err := NewExecBackend("   "); err == nil {
		t.Fatalf("expected error for empty player command")
	}
}
