package birthday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crucial707/birthday-service/internal/metrics"
	"github.com/google/uuid"
)

// ErrScanInProgress is returned by Run when another scan holds the run guard.
var ErrScanInProgress = errors.New("birthday scan already in progress")

// DefaultReportTimeout bounds report emission after a scan.
const DefaultReportTimeout = 30 * time.Second

// Store is one open connection to the user store. Close releases it.
type Store interface {
	Source
	Close() error
}

// Connector opens a fresh Store for every run.
type Connector interface {
	Connect(ctx context.Context) (Store, error)
}

// Emitter publishes the summary of one completed scan. Delivery is best effort.
type Emitter interface {
	Emit(ctx context.Context, r Report) error
}

// Gate owns the once-per-day run decision.
type Gate interface {
	// TryStart records a run start for the current day unless one was already
	// recorded. prev is the state before the call, for Rollback.
	TryStart() (proceed bool, prev time.Time)
	Rollback(prev time.Time)
	LastExecution() (time.Time, bool)
}

// Outcome classifies how a Run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeBusy      Outcome = "busy"
	OutcomeFailed    Outcome = "failed"
)

// Status is a point-in-time view of the service for operators.
type Status struct {
	LastExecution *time.Time `json:"last_execution,omitempty"`
	TargetDate    string     `json:"target_date"`
	Running       bool       `json:"running"`
	LastOutcome   Outcome    `json:"last_outcome,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	LastReport    *Report    `json:"last_report,omitempty"`
}

// Service wires the day gate, the store connector, the scanner and the report emitter.
type Service struct {
	gate      Gate
	connector Connector
	scanner   *Scanner
	emitter   Emitter
	log       *slog.Logger
	now       func() time.Time

	targetDate            time.Time
	location              *time.Location
	retryOnConnectFailure bool
	reportTimeout         time.Duration

	runMu   sync.Mutex
	running atomic.Bool
	wg      sync.WaitGroup

	statusMu    sync.RWMutex
	lastOutcome Outcome
	lastErr     string
	lastReport  *Report
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTargetDate pins the birthday key for every run of this service.
// Without it each run matches against the calendar day it starts on.
func WithTargetDate(t time.Time) ServiceOption {
	return func(s *Service) { s.targetDate = t }
}

// WithLocation sets the time zone used to decide "today".
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) { s.location = loc }
}

// WithRetryOnConnectFailure rolls back the day's run record when the store cannot be
// reached, so a later recheck on the same day tries again.
func WithRetryOnConnectFailure(enabled bool) ServiceOption {
	return func(s *Service) { s.retryOnConnectFailure = enabled }
}

// WithReportTimeout bounds how long a run waits for the report emitter.
func WithReportTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.reportTimeout = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service. scanner is copied per run, so it must not be mutated afterwards.
func NewService(gate Gate, connector Connector, scanner *Scanner, emitter Emitter, opts ...ServiceOption) *Service {
	s := &Service{
		gate:      gate,
		connector: connector,
		scanner:   scanner,
		emitter:   emitter,
		log:       slog.Default(),
		now:       time.Now,
		location:  time.Local,

		reportTimeout: DefaultReportTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one gated scan. The store connection is opened after the day gate
// and released on every exit path. Errors are logged here; the returned error is
// informational for callers that want it.
func (s *Service) Run(ctx context.Context) (Outcome, error) {
	if !s.runMu.TryLock() {
		s.log.Warn("birthday scan already in progress, trigger ignored")
		metrics.IncRuns(string(OutcomeBusy))
		return OutcomeBusy, ErrScanInProgress
	}
	defer s.runMu.Unlock()

	proceed, prev := s.gate.TryStart()
	if !proceed {
		return s.finish(OutcomeSkipped, nil, nil)
	}

	s.running.Store(true)
	metrics.SetScanRunning(true)
	defer func() {
		s.running.Store(false)
		metrics.SetScanRunning(false)
	}()

	runID := uuid.NewString()
	log := s.log.With("run_id", runID)
	now := s.now().In(s.location)
	target := s.targetFor(now)

	log.Info("service initialized, trying to connect to store", "at", FormatTimestamp(now))
	store, err := s.connector.Connect(ctx)
	if err != nil {
		log.Error("Error occurred while establishing connection with store", "at", FormatTimestamp(s.now()), "error", err)
		if s.retryOnConnectFailure {
			s.gate.Rollback(prev)
			log.Info("run record rolled back, a later recheck today will retry")
		}
		return s.finish(OutcomeFailed, nil, fmt.Errorf("connect store: %w", err))
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("close store connection", "error", cerr)
		}
	}()
	log.Info("connection successfully created", "at", FormatTimestamp(s.now()))

	sc := *s.scanner
	sc.Logger = log
	if sc.Location == nil {
		sc.Location = s.location
	}
	report, err := sc.Scan(ctx, store, target)
	if err != nil {
		log.Error("birthday scan failed", "error", err)
		return s.finish(OutcomeFailed, nil, fmt.Errorf("scan: %w", err))
	}
	report.RunID = runID
	metrics.ObserveScanDuration(report.Duration.Seconds())

	if err := s.emit(ctx, report); err != nil {
		log.Error("report emission failed", "error", err)
	}
	log.Info("birthday run completed",
		"target_date", FormatDate(report.TargetDate),
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration_s", report.DurationSeconds())
	return s.finish(OutcomeCompleted, &report, nil)
}

// Trigger starts Run in the background, detached from ctx's cancellation, and
// returns immediately. Outcomes are only logged.
func (s *Service) Trigger(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("birthday run panicked", "panic", rec)
			}
		}()
		_, _ = s.Run(ctx)
	}()
}

// Wait blocks until every run started by Trigger has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Ping opens and closes a store connection.
func (s *Service) Ping(ctx context.Context) error {
	store, err := s.connector.Connect(ctx)
	if err != nil {
		return err
	}
	return store.Close()
}

// Status reports the day gate, the target date mode and the last run in memory.
func (s *Service) Status() Status {
	st := Status{
		TargetDate: "today",
		Running:    s.running.Load(),
	}
	if !s.targetDate.IsZero() {
		st.TargetDate = FormatDate(s.targetDate)
	}
	if last, ok := s.gate.LastExecution(); ok {
		st.LastExecution = &last
	}

	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st.LastOutcome = s.lastOutcome
	st.LastError = s.lastErr
	if s.lastReport != nil {
		r := *s.lastReport
		st.LastReport = &r
	}
	return st
}

// emit gives the emitter reportTimeout and returns once it expires, even if the
// emitter ignores its context.
func (s *Service) emit(ctx context.Context, r Report) error {
	ctx, cancel := context.WithTimeout(ctx, s.reportTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("emitter panicked: %v", rec)
			}
		}()
		done <- s.emitter.Emit(ctx, r)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("report not delivered within %s: %w", s.reportTimeout, ctx.Err())
	}
}

func (s *Service) targetFor(now time.Time) time.Time {
	if !s.targetDate.IsZero() {
		return s.targetDate
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (s *Service) finish(outcome Outcome, report *Report, err error) (Outcome, error) {
	metrics.IncRuns(string(outcome))

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.lastOutcome = outcome
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
	if report != nil {
		s.lastReport = report
	}
	return outcome, err
}
