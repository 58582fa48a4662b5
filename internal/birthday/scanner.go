package birthday

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/birthday-service/internal/metrics"
	"github.com/crucial707/birthday-service/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPageSize bounds every route and user page fetched during a scan.
	DefaultPageSize = 50
	// DefaultDispatchTimeout bounds a single notification attempt.
	DefaultDispatchTimeout = 10 * time.Second
)

// Source pages through routes and through the users of one route.
// Pages are addressed by offset and limit; a page shorter than limit is the last one.
type Source interface {
	ListRoutes(ctx context.Context, limit, offset int) ([]models.Route, error)
	ListUsersByRoute(ctx context.Context, routeID string, limit, offset int) ([]models.User, error)
}

// Dispatcher attempts to deliver one birthday notification. It returns true when the
// message was delivered. Failures are reported as false, never retried by the scanner.
type Dispatcher interface {
	Send(ctx context.Context, routeName string, user models.User) bool
}

// Scanner walks every user of every route once and notifies the ones whose birthday
// falls on the target date.
type Scanner struct {
	PageSize        int
	Dispatcher      Dispatcher
	DispatchTimeout time.Duration
	// Concurrency > 1 sends the matches of one user page in parallel. The page is
	// always finished before the next one is fetched.
	Concurrency int
	Location    *time.Location
	Logger      *slog.Logger

	now func() time.Time
}

// Scan runs one full traversal and returns the accumulated report. Any page fetch error
// aborts the scan; no partial report is returned in that case.
func (s *Scanner) Scan(ctx context.Context, src Source, target time.Time) (Report, error) {
	size := s.pageSize()
	start := s.clock()
	report := Report{TargetDate: target, StartedAt: start}

	s.logger().Info("Searching birthday users started",
		"started_at", FormatTimestamp(start),
		"target_date", FormatDate(target),
		"page_size", size)

	for offset := 0; ; offset += size {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		routes, err := src.ListRoutes(ctx, size, offset)
		if err != nil {
			return Report{}, fmt.Errorf("list routes offset=%d: %w", offset, err)
		}
		metrics.IncPagesFetched("routes")

		for _, route := range routes {
			if err := s.scanRoute(ctx, src, route, target, size, &report); err != nil {
				return Report{}, err
			}
		}

		if len(routes) < size {
			break
		}
	}

	report.Duration = s.clock().Sub(start)
	return report, nil
}

func (s *Scanner) scanRoute(ctx context.Context, src Source, route models.Route, target time.Time, size int, report *Report) error {
	loc := s.location()
	for offset := 0; ; offset += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		users, err := src.ListUsersByRoute(ctx, route.ID, size, offset)
		if err != nil {
			return fmt.Errorf("list users route=%s offset=%d: %w", route.ID, offset, err)
		}
		metrics.IncPagesFetched("users")

		var matched []models.User
		for _, u := range users {
			if IsBirthday(u, target, loc) {
				matched = append(matched, u)
			}
		}
		s.dispatchPage(ctx, route, matched, report)

		if len(users) < size {
			return nil
		}
	}
}

func (s *Scanner) dispatchPage(ctx context.Context, route models.Route, users []models.User, report *Report) {
	if len(users) == 0 {
		return
	}
	if s.Concurrency <= 1 {
		for _, u := range users {
			report.record(s.send(ctx, route, u))
		}
		return
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.Concurrency)
	for _, u := range users {
		u := u
		g.Go(func() error {
			delivered := s.send(ctx, route, u)
			mu.Lock()
			report.record(delivered)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// send runs one dispatch under the per-attempt deadline. A dispatcher that ignores its
// context is abandoned once the deadline passes and the attempt counts as failed.
func (s *Scanner) send(ctx context.Context, route models.Route, u models.User) bool {
	timeout := s.DispatchTimeout
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() { done <- s.Dispatcher.Send(dctx, route.Name, u) }()

	var delivered bool
	select {
	case delivered = <-done:
	case <-dctx.Done():
		s.logger().Warn("birthday dispatch timed out", "route", route.Name, "user_id", u.ID, "timeout", timeout)
	}

	status := "failed"
	if delivered {
		status = "delivered"
	}
	metrics.IncDispatch(status)
	s.logger().Debug("birthday dispatch", "route", route.Name, "user_id", u.ID, "status", status)
	return delivered
}

func (s *Scanner) pageSize() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}

func (s *Scanner) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Scanner) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
