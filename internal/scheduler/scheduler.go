package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/robfig/cron/v3"
)

// DefaultRecheckInterval is how often a missed daily run is retried.
const DefaultRecheckInterval = time.Hour

// Decision is the answer of AttemptRun.
type Decision int

const (
	Proceed Decision = iota
	Skip
)

func (d Decision) String() string {
	if d == Skip {
		return "skip"
	}
	return "proceed"
}

// RunState records the start of the last run. A zero LastExecution means no run yet.
type RunState struct {
	LastExecution time.Time
}

// Scheduler owns the once-per-calendar-day run record and the timers that re-attempt
// the run. One instance per process.
type Scheduler struct {
	mu    sync.Mutex
	state RunState

	now func() time.Time
	loc *time.Location
	log *slog.Logger

	cron *cron.Cron

	// jobMu is held for reading by running jobs and for writing by Stop.
	jobMu   sync.RWMutex
	stopped bool
	started bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocation sets the zone in which calendar days and cron specs are evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New returns an idle Scheduler. Timers start with StartPeriodicRecheck or StartDaily.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		now: time.Now,
		loc: time.Local,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithLocation(s.loc))
	return s
}

// AttemptRun is the check-and-set of the day gate. On a calendar day that already has
// a recorded run it returns Skip; otherwise it records now and returns Proceed.
// prev is the record before the call.
func (s *Scheduler) AttemptRun() (d Decision, prev time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().In(s.loc)
	prev = s.state.LastExecution
	if !prev.IsZero() && birthday.SameDay(now, prev) {
		s.log.Info("Service can't be started for the same day again",
			"at", birthday.FormatTimestamp(now),
			"last_execution", birthday.FormatTimestamp(prev.In(s.loc)))
		return Skip, prev
	}
	s.state.LastExecution = now
	return Proceed, prev
}

// TryStart adapts AttemptRun to birthday.Gate.
func (s *Scheduler) TryStart() (bool, time.Time) {
	d, prev := s.AttemptRun()
	return d == Proceed, prev
}

// Rollback restores the run record saved by AttemptRun.
func (s *Scheduler) Rollback(prev time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastExecution = prev
}

// LastExecution returns the recorded start of the last run, if any.
func (s *Scheduler) LastExecution() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastExecution, !s.state.LastExecution.IsZero()
}

// StartPeriodicRecheck runs job every interval until Stop.
func (s *Scheduler) StartPeriodicRecheck(interval time.Duration, job func()) error {
	if interval <= 0 {
		interval = DefaultRecheckInterval
	}
	return s.add("@every "+interval.String(), "recheck", job)
}

// StartDaily runs job on a standard five-field cron spec, e.g. "0 0 * * *".
func (s *Scheduler) StartDaily(spec string, job func()) error {
	return s.add(spec, "daily", job)
}

func (s *Scheduler) add(spec, name string, job func()) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if s.stopped {
		return fmt.Errorf("scheduler: stopped")
	}
	if _, err := s.cron.AddFunc(spec, s.guard(name, job)); err != nil {
		return fmt.Errorf("scheduler: invalid %s spec %q: %w", name, spec, err)
	}
	if !s.started {
		s.cron.Start()
		s.started = true
	}
	s.log.Info("scheduler: timer armed", "timer", name, "spec", spec)
	return nil
}

func (s *Scheduler) guard(name string, job func()) func() {
	return func() {
		s.jobMu.RLock()
		defer s.jobMu.RUnlock()
		if s.stopped {
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("scheduler: job panicked", "timer", name, "panic", rec)
			}
		}()
		job()
	}
}

// Stop cancels all timers. A job that is already running is not interrupted; Stop
// waits for it, and no job starts after Stop returns. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.jobMu.Lock()
	if s.stopped {
		s.jobMu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	s.jobMu.Unlock()

	if started {
		s.cron.Stop()
	}
	s.log.Info("scheduler: stopped")
}
