// Package indicator drives the seven-position indicator strip.
package indicator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/rock/internal/model"
)

// ErrHardware marks failures reported by the LED driver.
var ErrHardware = errors.New("indicator hardware failure")

// SweepStep is how long each LED stays lit during a sweep.
const SweepStep = 40 * time.Millisecond

// Driver is the per-LED primitive a physical or emulated board implements.
// Indexes are zero-based in [0, model.DaysPerWeek).
type Driver interface {
	On(index int) error
	Off(index int) error
	Pulse(index int, fadeIn, fadeOut time.Duration) error
	Blink(index int, on, off time.Duration, count int) error
	AllOff() error
}

// Strip addresses driver LEDs by 1-indexed day position.
type Strip struct {
	driver Driver
	sleep  func(context.Context, time.Duration) error
}

// New wraps a driver.
func New(driver Driver) *Strip {
	return &Strip{driver: driver, sleep: sleepContext}
}

// Index maps a position to a driver index.
func Index(pos int) int {
	return model.Slot(pos)
}

// On lights a position solid.
func (s *Strip) On(pos int) error {
	return s.wrap("on", pos, s.driver.On(Index(pos)))
}

// Off turns a position off.
func (s *Strip) Off(pos int) error {
	return s.wrap("off", pos, s.driver.Off(Index(pos)))
}

// Pulse starts a continuous breathing effect; period is used for both the fade in and the fade out.
func (s *Strip) Pulse(pos int, period time.Duration) error {
	return s.wrap("pulse", pos, s.driver.Pulse(Index(pos), period, period))
}

// BlinkBurst blinks a position count times, then leaves it off.
func (s *Strip) BlinkBurst(pos int, on, off time.Duration, count int) error {
	return s.wrap("blink", pos, s.driver.Blink(Index(pos), on, off, count))
}

// ClearAll turns every position off.
func (s *Strip) ClearAll() error {
	if err := s.driver.AllOff(); err != nil {
		return fmt.Errorf("%w: clear: %v", ErrHardware, err)
	}
	return nil
}

// Sweep runs a blocking front-to-back-to-front animation.
func (s *Strip) Sweep(ctx context.Context, cycles int) error {
	for _, idx := range sweepOrder(cycles) {
		if err := s.driver.On(idx); err != nil {
			return fmt.Errorf("%w: sweep: %v", ErrHardware, err)
		}
		if err := s.sleep(ctx, SweepStep); err != nil {
			_ = s.driver.Off(idx)
			return err
		}
		if err := s.driver.Off(idx); err != nil {
			return fmt.Errorf("%w: sweep: %v", ErrHardware, err)
		}
	}
	return nil
}

// Each cycle visits 0..6 then 5..1 so the ends are not lit twice in a row.
func sweepOrder(cycles int) []int {
	var order []int
	for c := 0; c < cycles; c++ {
		for i := 0; i < model.DaysPerWeek; i++ {
			order = append(order, i)
		}
		for i := model.DaysPerWeek - 2; i > 0; i-- {
			order = append(order, i)
		}
	}
	return order
}

func (s *Strip) wrap(op string, pos int, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s position %d: %v", ErrHardware, op, pos, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
