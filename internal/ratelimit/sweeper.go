package ratelimit

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"contactgate/internal/logging"
)

// DefaultSweepSpec runs the sweep every five minutes.
const DefaultSweepSpec = "@every 5m"

// Sweeper periodically drops expired MemoryStore entries on its own
// goroutine, so request handling never waits for it beyond the store lock.
type Sweeper struct {
	cron   *cron.Cron
	store  *MemoryStore
	log    logging.Logger
	report func(size int)
}

// NewSweeper schedules store.Sweep on spec. report, when non-nil, receives
// the number of live entries after each sweep.
func NewSweeper(store *MemoryStore, spec string, log logging.Logger, report func(size int)) (*Sweeper, error) {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if log == nil {
		log = logging.Discard()
	}

	s := &Sweeper{
		cron:   cron.New(),
		store:  store,
		log:    log,
		report: report,
	}

	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return nil, fmt.Errorf("failed to schedule rate limit sweep %q: %w", spec, err)
	}
	return s, nil
}

// Run performs one sweep immediately.
func (s *Sweeper) Run() {
	removed := s.store.Sweep()
	size := s.store.Len()
	if s.report != nil {
		s.report(size)
	}
	s.log.Debug(context.Background(), "Rate limit sweep finished", "removed", removed, "remaining", size)
}

// Start begins the schedule.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
