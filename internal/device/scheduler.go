package device

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// DefaultRollover fires at local midnight.
const DefaultRollover = "0 0 * * *"

// Scheduler runs the daily rollover job.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers fire under a standard five-field cron spec.
func NewScheduler(spec string, fire func()) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultRollover
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, fire); err != nil {
		return nil, fmt.Errorf("invalid rollover schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
