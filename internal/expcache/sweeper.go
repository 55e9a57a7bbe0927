package expcache

import (
	"fmt"
	"sync"

	"github.com/robfig/cron"

	"github.com/xdg/cosigner/internal/clog"
)

// DefaultSchedule sweeps once a minute.
const DefaultSchedule = "@every 1m"

// CacheSource returns the caches to sweep. It is called on every run so
// sessions paired or removed while the sweeper runs are picked up.
type CacheSource func() []*Cache

// Sweeper periodically calls RemoveExpired on every cache from its source.
type Sweeper struct {
	mu       sync.Mutex
	schedule string
	source   CacheSource
	cron     *cron.Cron
}

// NewSweeper creates a sweeper. An empty schedule uses DefaultSchedule.
func NewSweeper(schedule string, source CacheSource) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{schedule: schedule, source: source}
}

// ValidateSchedule reports whether the sweeper accepts schedule.
func ValidateSchedule(schedule string) error {
	if _, err := cron.Parse(schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return nil
}

// Start schedules the sweep. Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	c := cron.New()
	c.ErrorLog = clog.StdLogger(clog.LevelError)
	if err := c.AddFunc(s.schedule, func() { s.Sweep() }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()
	s.cron = c
	log.Info("sweeper started with schedule %q", s.schedule)
	return nil
}

// Stop halts the schedule. A sweep already running finishes on its own.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
	log.Info("sweeper stopped")
}

// Sweep runs one pass over every cache and returns the number of
// entries removed.
func (s *Sweeper) Sweep() int {
	total := 0
	for _, c := range s.source() {
		if n := c.RemoveExpired(); n > 0 {
			log.Debug("swept %d expired entries from %s", n, c.Name())
			total += n
		}
	}
	if total > 0 {
		log.Info("swept %d expired entries", total)
	}
	return total
}
