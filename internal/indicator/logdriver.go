package indicator

import (
	"time"

	"github.com/rs/zerolog"
)

// LoggingDriver logs each command before passing it to the wrapped driver.
type LoggingDriver struct {
	next   Driver
	logger zerolog.Logger
}

// NewLoggingDriver wraps next.
func NewLoggingDriver(next Driver, logger zerolog.Logger) *LoggingDriver {
	return &LoggingDriver{next: next, logger: logger.With().Str("component", "indicator").Logger()}
}

// On implements Driver.
func (d *LoggingDriver) On(index int) error {
	d.logger.Debug().Int("led", index).Msg("on")
	return d.next.On(index)
}

// Off implements Driver.
func (d *LoggingDriver) Off(index int) error {
	d.logger.Debug().Int("led", index).Msg("off")
	return d.next.Off(index)
}

// Pulse implements Driver.
func (d *LoggingDriver) Pulse(index int, fadeIn, fadeOut time.Duration) error {
	d.logger.Debug().Int("led", index).Dur("fade_in", fadeIn).Dur("fade_out", fadeOut).Msg("pulse")
	return d.next.Pulse(index, fadeIn, fadeOut)
}

// Blink implements Driver.
func (d *LoggingDriver) Blink(index int, on, off time.Duration, count int) error {
	d.logger.Debug().Int("led", index).Dur("on", on).Dur("off", off).Int("count", count).Msg("blink")
	return d.next.Blink(index, on, off, count)
}

// AllOff implements Driver.
func (d *LoggingDriver) AllOff() error {
	d.logger.Debug().Msg("all off")
	return d.next.AllOff()
}
