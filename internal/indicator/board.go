package indicator

import (
	"fmt"
	"sync"
	"time"

	"github.com/verte-zerg/rock/internal/model"
)

// Mode is the visual state of one LED.
type Mode int

const (
	ModeOff Mode = iota
	ModeOn
	ModePulse
	ModeBlink
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeOn:
		return "on"
	case ModePulse:
		return "pulse"
	case ModeBlink:
		return "blink"
	default:
		return "off"
	}
}

// LED is the state of one board position.
type LED struct {
	Mode   Mode
	Period time.Duration
	On     time.Duration
	Off    time.Duration
	Count  int
	Since  time.Time
}

// Board is an in-memory Driver. Renderers read it through Snapshot.
type Board struct {
	mu   sync.Mutex
	leds [model.DaysPerWeek]LED
	now  func() time.Time
}

// NewBoard returns a board with every LED off.
func NewBoard() *Board {
	return &Board{now: time.Now}
}

// Snapshot returns a copy of all LED states.
func (b *Board) Snapshot() [model.DaysPerWeek]LED {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.leds
}

// On implements Driver.
func (b *Board) On(index int) error {
	return b.set(index, LED{Mode: ModeOn})
}

// Off implements Driver.
func (b *Board) Off(index int) error {
	return b.set(index, LED{Mode: ModeOff})
}

// Pulse implements Driver.
func (b *Board) Pulse(index int, fadeIn, fadeOut time.Duration) error {
	return b.set(index, LED{Mode: ModePulse, Period: fadeIn + fadeOut})
}

// Blink implements Driver.
func (b *Board) Blink(index int, on, off time.Duration, count int) error {
	return b.set(index, LED{Mode: ModeBlink, On: on, Off: off, Count: count})
}

// AllOff implements Driver.
func (b *Board) AllOff() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.leds {
		b.leds[i] = LED{Mode: ModeOff}
	}
	return nil
}

func (b *Board) set(index int, led LED) error {
	if index < 0 || index >= model.DaysPerWeek {
		return fmt.Errorf("led index %d out of range", index)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	led.Since = b.now()
	b.leds[index] = led
	return nil
}

// Lit reports whether an LED is visibly on at t. Pulsing LEDs count as lit
// above half brightness; finished blink bursts are off.
func (l LED) Lit(t time.Time) bool {
	switch l.Mode {
	case ModeOn:
		return true
	case ModePulse:
		return l.Level(t) >= 0.5
	case ModeBlink:
		cycle := l.On + l.Off
		if cycle <= 0 {
			return false
		}
		elapsed := t.Sub(l.Since)
		if l.Count > 0 && elapsed >= cycle*time.Duration(l.Count) {
			return false
		}
		return elapsed%cycle < l.On
	default:
		return false
	}
}

// Level returns pulse brightness in [0,1] at t, triangular over the period.
func (l LED) Level(t time.Time) float64 {
	if l.Mode != ModePulse {
		if l.Lit(t) {
			return 1
		}
		return 0
	}
	if l.Period <= 0 {
		return 1
	}
	half := l.Period / 2
	phase := t.Sub(l.Since) % l.Period
	if phase < half {
		return float64(phase) / float64(half)
	}
	return float64(l.Period-phase) / float64(half)
}
