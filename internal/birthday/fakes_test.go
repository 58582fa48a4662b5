package birthday

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/crucial707/birthday-service/internal/models"
)

type fakeSource struct {
	routes []models.Route
	users  map[string][]models.User

	mu         sync.Mutex
	routeCalls int
	userCalls  map[string]int
	routesErr  error
	usersErr   error
	closed     int
}

func newFakeSource() *fakeSource {
	return &fakeSource{users: map[string][]models.User{}, userCalls: map[string]int{}}
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := min(offset+limit, len(all))
	return append([]T(nil), all[offset:end]...)
}

func (f *fakeSource) ListRoutes(_ context.Context, limit, offset int) ([]models.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeCalls++
	if f.routesErr != nil {
		return nil, f.routesErr
	}
	return page(f.routes, limit, offset), nil
}

func (f *fakeSource) ListUsersByRoute(_ context.Context, routeID string, limit, offset int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls[routeID]++
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return page(f.users[routeID], limit, offset), nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

type fakeConnector struct {
	store *fakeSource
	err   error
	calls int
}

func (c *fakeConnector) Connect(context.Context) (Store, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.store, nil
}

type recordingDispatcher struct {
	mu      sync.Mutex
	sent    []string
	outcome func(models.User) bool
}

func (d *recordingDispatcher) Send(_ context.Context, routeName string, u models.User) bool {
	d.mu.Lock()
	d.sent = append(d.sent, routeName+"/"+u.ID)
	d.mu.Unlock()
	if d.outcome == nil {
		return true
	}
	return d.outcome(u)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type recordingEmitter struct {
	reports []Report
	err     error
}

func (e *recordingEmitter) Emit(_ context.Context, r Report) error {
	e.reports = append(e.reports, r)
	return e.err
}

// fakeGate allows one run until rolled back.
type fakeGate struct {
	mu         sync.Mutex
	last       time.Time
	rolledBack int
}

func (g *fakeGate) TryStart() (bool, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.last
	if !prev.IsZero() {
		return false, prev
	}
	g.last = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	return true, prev
}

func (g *fakeGate) Rollback(prev time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = prev
	g.rolledBack++
}

func (g *fakeGate) LastExecution() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, !g.last.IsZero()
}

var errBoom = errors.New("boom")

func withBirthday(id, routeID, value string) models.User {
	return models.User{
		ID:        id,
		RouteID:   routeID,
		FirstName: "fname" + id,
		LastName:  "lname" + id,
		CellPhone: "mobile" + id,
		Metadata: []models.MetadataEntry{
			{ID: 1, Name: models.MetadataBirthday, Value: value},
			{ID: 2, Name: "anniversary_date", Value: ""},
		},
	}
}
