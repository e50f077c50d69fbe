package device

import (
	"sync"
	"time"

	"github.com/verte-zerg/rock/internal/tracker"
)

// DefaultHoldTime is how long the primary button must be held to finish a session.
const DefaultHoldTime = 3 * time.Second

// Button turns raw press and release edges into classified events.
type Button struct {
	post func(tracker.Event) bool
	hold time.Duration
	now  func() time.Time

	mu        sync.Mutex
	pressed   bool
	pressedAt time.Time
	timer     *time.Timer
}

// NewButton posts classified events through post. A zero hold disables held events.
func NewButton(hold time.Duration, post func(tracker.Event) bool) *Button {
	return &Button{post: post, hold: hold, now: time.Now}
}

// Press records the press edge and arms the hold timer.
func (b *Button) Press() {
	b.mu.Lock()
	if b.pressed {
		b.mu.Unlock()
		return
	}
	b.pressed = true
	b.pressedAt = b.now()
	if b.hold > 0 {
		b.timer = time.AfterFunc(b.hold, func() {
			b.post(tracker.EventHeld)
		})
	}
	b.mu.Unlock()
	b.post(tracker.EventPress)
}

// Release records the release edge.
func (b *Button) Release() {
	b.mu.Lock()
	if !b.pressed {
		b.mu.Unlock()
		return
	}
	b.pressed = false
	ev := tracker.EventRelease
	// A timer that already fired has posted the held event.
	if b.timer != nil && !b.timer.Stop() {
		ev = tracker.EventReleaseAfterHold
	}
	b.timer = nil
	b.mu.Unlock()
	b.post(ev)
}

// HeldFor returns how long the button has been down, or zero.
func (b *Button) HeldFor() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pressed {
		return 0
	}
	return b.now().Sub(b.pressedAt)
}

// Pressed reports whether the button is down.
func (b *Button) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}
