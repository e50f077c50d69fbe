// Package device runs the event loop that ties inputs, timers and the tracker together.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/rock/internal/tracker"
)

// Defaults used when Options leave a field zero.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultSweepCycles  = 5
)

const eventBuffer = 16

// Tracker is the state machine the loop drives.
type Tracker interface {
	LoadState(ctx context.Context) error
	HandleInput(ctx context.Context, ev tracker.Event) error
	CheckCompletion() bool
	Meditating() bool
	StopMeditation(ctx context.Context) error
}

// Sweeper plays the startup animation.
type Sweeper interface {
	Sweep(ctx context.Context, cycles int) error
}

// Options tune the loop.
type Options struct {
	PollInterval time.Duration
	Rollover     string
	SweepCycles  int
	Logger       zerolog.Logger
}

// Loop owns the tracker: every transition runs on the goroutine calling Run.
type Loop struct {
	tracker   Tracker
	sweeper   Sweeper
	scheduler *Scheduler
	logger    zerolog.Logger

	poll        time.Duration
	sweepCycles int

	events   chan tracker.Event
	done     chan struct{}
	doneOnce sync.Once
}

// New builds a loop. The rollover schedule is validated here.
func New(t Tracker, sweeper Sweeper, opts Options) (*Loop, error) {
	l := &Loop{
		tracker:     t,
		sweeper:     sweeper,
		logger:      opts.Logger.With().Str("component", "device").Logger(),
		poll:        opts.PollInterval,
		sweepCycles: opts.SweepCycles,
		events:      make(chan tracker.Event, eventBuffer),
		done:        make(chan struct{}),
	}
	if l.poll <= 0 {
		l.poll = DefaultPollInterval
	}
	if l.sweepCycles < 0 {
		l.sweepCycles = 0
	}
	scheduler, err := NewScheduler(opts.Rollover, func() {
		l.logger.Info().Msg("daily rollover")
		l.Post(tracker.EventDailyTrigger)
	})
	if err != nil {
		return nil, err
	}
	l.scheduler = scheduler
	return l, nil
}

// Post queues an input event. It returns false once the loop has exited.
func (l *Loop) Post(ev tracker.Event) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}

// Run sweeps the strip, loads state and processes events until ctx is
// cancelled. A session still running at shutdown is stopped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.closeDone()

	if l.sweeper != nil && l.sweepCycles > 0 {
		if err := l.sweeper.Sweep(ctx, l.sweepCycles); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Error().Err(err).Msg("startup sweep failed")
		}
	}
	if err := l.tracker.LoadState(ctx); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	l.scheduler.Start()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.closeDone()
			l.scheduler.Stop()
			l.shutdown()
			return nil
		case ev := <-l.events:
			l.handle(ctx, ev)
		case <-ticker.C:
			l.checkCompletion()
		}
	}
}

func (l *Loop) handle(ctx context.Context, ev tracker.Event) {
	err := l.tracker.HandleInput(ctx, ev)
	switch {
	case err == nil:
	case errors.Is(err, tracker.ErrNotReady):
		l.logger.Info().Stringer("event", ev).Msg("day not advanced")
	default:
		l.logger.Error().Err(err).Stringer("event", ev).Msg("event failed")
	}
}

func (l *Loop) checkCompletion() {
	if !l.tracker.Meditating() {
		return
	}
	if l.tracker.CheckCompletion() {
		l.logger.Info().Msg("completion reached")
	}
}

func (l *Loop) shutdown() {
	if !l.tracker.Meditating() {
		return
	}
	l.logger.Info().Msg("stopping session on shutdown")
	if err := l.tracker.StopMeditation(context.Background()); err != nil {
		l.logger.Error().Err(err).Msg("failed to stop session")
	}
}

func (l *Loop) closeDone() {
	l.doneOnce.Do(func() {
		close(l.done)
	})
}
