package scheduler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestScheduler(c *stepClock) *Scheduler {
	return New(WithClock(c.Now), WithLocation(time.UTC))
}

func TestAttemptRun_ProceedThenSkipSameDay(t *testing.T) {
	first := time.Date(2024, 3, 15, 0, 10, 0, 0, time.UTC)
	clock := &stepClock{now: first}
	s := newTestScheduler(clock)

	d, prev := s.AttemptRun()
	assert.Equal(t, Proceed, d)
	assert.True(t, prev.IsZero())

	clock.Set(time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC))
	d, prev = s.AttemptRun()
	assert.Equal(t, Skip, d)
	assert.Equal(t, first, prev)

	last, ok := s.LastExecution()
	require.True(t, ok)
	assert.Equal(t, first, last, "skip must not overwrite the recorded run")
}

func TestAttemptRun_SkipLogsDatesAsAttributes(t *testing.T) {
	var buf bytes.Buffer
	clock := &stepClock{now: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)}
	s := New(WithClock(clock.Now), WithLocation(time.UTC), WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))

	s.AttemptRun()
	clock.Set(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	d, _ := s.AttemptRun()
	require.Equal(t, Skip, d)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Service can't be started for the same day again", rec["msg"])
	assert.Equal(t, "2024-03-15 09:00:00", rec["at"])
	assert.Equal(t, "2024-03-15 08:00:00", rec["last_execution"])
}

func TestAttemptRun_NextDayProceeds(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)}
	s := newTestScheduler(clock)

	d, _ := s.AttemptRun()
	require.Equal(t, Proceed, d)

	next := time.Date(2024, 3, 16, 0, 0, 1, 0, time.UTC)
	clock.Set(next)
	d, _ = s.AttemptRun()
	assert.Equal(t, Proceed, d)

	last, _ := s.LastExecution()
	assert.Equal(t, next, last)
}

func TestAttemptRun_SameDayNextYearProceeds(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)}
	s := newTestScheduler(clock)
	s.AttemptRun()

	clock.Set(time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC))
	d, _ := s.AttemptRun()
	assert.Equal(t, Proceed, d)
}

func TestAttemptRun_ConcurrentCallersProceedOnce(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)}
	s := newTestScheduler(clock)

	var proceeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.TryStart(); ok {
				proceeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), proceeded.Load())
}

func TestRollback(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)}
	s := newTestScheduler(clock)

	ok, prev := s.TryStart()
	require.True(t, ok)
	s.Rollback(prev)

	_, recorded := s.LastExecution()
	assert.False(t, recorded)
	ok, _ = s.TryStart()
	assert.True(t, ok)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "proceed", Proceed.String())
	assert.Equal(t, "skip", Skip.String())
}

func TestStartPeriodicRecheck_RunsUntilStop(t *testing.T) {
	s := New()
	var calls atomic.Int32
	require.NoError(t, s.StartPeriodicRecheck(time.Second, func() { calls.Add(1) }))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	s.Stop()
	after := calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no job may run after Stop returns")
}

func TestStop_WaitsForRunningJob(t *testing.T) {
	s := New()
	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, s.StartPeriodicRecheck(time.Second, func() {
		select {
		case entered <- struct{}{}:
		default:
			return
		}
		<-release
		finished.Store(true)
	}))

	<-entered
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a job was running")
	case <-time.After(100 * time.Millisecond):
	}
	close(release)
	<-stopped
	assert.True(t, finished.Load())
}

func TestStop_Idempotent(t *testing.T) {
	s := New()
	s.Stop()
	s.Stop()

	err := s.StartPeriodicRecheck(time.Hour, func() {})
	assert.Error(t, err)
}

func TestStartDaily_InvalidSpec(t *testing.T) {
	s := New()
	defer s.Stop()

	err := s.StartDaily("not a cron", func() {})
	assert.ErrorContains(t, err, "invalid daily spec")
}

func TestJobPanicIsRecovered(t *testing.T) {
	s := New()
	var calls atomic.Int32
	require.NoError(t, s.StartPeriodicRecheck(time.Second, func() {
		calls.Add(1)
		panic("scan blew up")
	}))

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 4*time.Second, 20*time.Millisecond)
	s.Stop()
}
