package birthday

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/crucial707/birthday-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var target = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func newScanner(d Dispatcher, pageSize int) *Scanner {
	return &Scanner{PageSize: pageSize, Dispatcher: d, Location: time.UTC}
}

func TestScan_ExampleReport(t *testing.T) {
	src := newFakeSource()
	src.routes = []models.Route{{ID: "r1", Name: "route1"}}
	src.users["r1"] = []models.User{
		withBirthday("A", "r1", "1990-03-15"),
		withBirthday("B", "r1", "1990-03-16"),
		{ID: "C", RouteID: "r1"},
	}
	d := &recordingDispatcher{}

	report, err := newScanner(d, 50).Scan(context.Background(), src, target)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, []string{"route1/A"}, d.sent)
	assert.Equal(t, target, report.TargetDate)
}

func TestScan_VisitsEveryUserForAnyCollectionSize(t *testing.T) {
	const pageSize = 5

	for _, n := range []int{0, 1, pageSize - 1, pageSize, pageSize + 1, 2 * pageSize, 2*pageSize + 1} {
		t.Run(fmt.Sprintf("users=%d", n), func(t *testing.T) {
			src := newFakeSource()
			src.routes = []models.Route{{ID: "r1", Name: "route1"}}
			for i := 0; i < n; i++ {
				src.users["r1"] = append(src.users["r1"], withBirthday(fmt.Sprint(i), "r1", "1980-03-15"))
			}
			d := &recordingDispatcher{}

			report, err := newScanner(d, pageSize).Scan(context.Background(), src, target)
			require.NoError(t, err)

			assert.Equal(t, n, report.Succeeded)
			assert.Equal(t, n, d.count())
			assert.Equal(t, n/pageSize+1, src.userCalls["r1"], "user page fetches")
		})
	}
}

func TestScan_VisitsEveryRouteForAnyCollectionSize(t *testing.T) {
	const pageSize = 4

	for _, n := range []int{0, 1, pageSize, pageSize + 1, 3 * pageSize} {
		t.Run(fmt.Sprintf("routes=%d", n), func(t *testing.T) {
			src := newFakeSource()
			for i := 0; i < n; i++ {
				id := fmt.Sprintf("r%d", i)
				src.routes = append(src.routes, models.Route{ID: id, Name: "route" + id})
				src.users[id] = []models.User{withBirthday("u"+id, id, "1975-03-15")}
			}
			d := &recordingDispatcher{}

			report, err := newScanner(d, pageSize).Scan(context.Background(), src, target)
			require.NoError(t, err)

			assert.Equal(t, n, report.Total())
			assert.Equal(t, n/pageSize+1, src.routeCalls, "route page fetches")
			assert.Len(t, src.userCalls, n)
		})
	}
}

func TestScan_FiftyOneUsersTakeTwoFetches(t *testing.T) {
	src := newFakeSource()
	src.routes = []models.Route{{ID: "r1", Name: "route1"}}
	for i := 0; i < 51; i++ {
		src.users["r1"] = append(src.users["r1"], models.User{ID: fmt.Sprint(i), RouteID: "r1"})
	}

	_, err := newScanner(&recordingDispatcher{}, 0).Scan(context.Background(), src, target)
	require.NoError(t, err)

	assert.Equal(t, 2, src.userCalls["r1"])
	assert.Equal(t, 1, src.routeCalls)
}

func TestScan_EmptyRouteDoesNotEndTraversal(t *testing.T) {
	src := newFakeSource()
	src.routes = []models.Route{{ID: "empty", Name: "empty"}, {ID: "r2", Name: "route2"}}
	src.users["r2"] = []models.User{withBirthday("x", "r2", "2000-03-15")}
	d := &recordingDispatcher{}

	report, err := newScanner(d, 2).Scan(context.Background(), src, target)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, []string{"route2/x"}, d.sent)
	assert.Equal(t, 2, src.routeCalls)
}

func TestScan_DifferentBirthYearsBothMatch(t *testing.T) {
	src := newFakeSource()
	src.routes = []models.Route{{ID: "r1", Name: "route1"}}
	src.users["r1"] = []models.User{
		withBirthday("old", "r1", "1950-03-15"),
		withBirthday("young", "r1", "2010-03-15"),
	}

	report, err := newScanner(&recordingDispatcher{}, 50).Scan(context.Background(), src, target)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
}

func TestScan_CountsFailedDispatches(t *testing.T) {
	src := newFakeSource()
	src.routes = []models.Route{{ID: "r1", Name: "route1"}}
	src.users["r1"] = []models.User{
		withBirthday("ok1", "r1", "1990-03-15"),
		withBirthday("bad", "r1", "1991-03-15"),
		withBirthday("ok2", "r1", "1992-03-15"),
		withBirthday("skip", "r1", "1992-07-01"),
	}
	d := &recordingDispatcher{outcome: func(u models.User) bool { return u.ID != "bad" }}

	report, err := newScanner(d, 2).Scan(context.Background(), src, target)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, d.count(), report.Total())
}

func TestScan_RouteFetchErrorAborts(t *testing.T) {
	src := newFakeSource()
	src.routesErr = errBoom

	_, err := newScanner(&recordingDispatcher{}, 50).Scan(context.Background(), src, target)
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "list routes offset=0")
}

func TestScan_UserFetchErrorAborts(t *testing.T) {
	src := newFakeSource()
	src.routes = []models.Route{{ID: "r1", Name: "route1"}, {ID: "r2", Name: "route2"}}
	src.usersErr = errBoom
	d := &recordingDispatcher{}

	_, err := newScanner(d, 50).Scan(context.Background(), src, target)
	require.ErrorIs(t, err, errBoom)
	assert.Len(t, src.userCalls, 1, "scan stops at the first failing route")
	assert.Zero(t, d.count())
}

func TestScan_CanceledContext(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(&recordingDispatcher{}, 50).Scan(ctx, src, target)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.routeCalls)
}

type stuckDispatcher struct{ release chan struct{} }

func (d stuckDispatcher) Send(context.Context, string, models.User) bool {
	<-d.release
	return true
}

func TestScan_DispatchTimeoutCountsAsFailure(t *testing.T) {
	src := newFakeSource()
	src.routes = []models.Route{{ID: "r1", Name: "route1"}}
	src.users["r1"] = []models.User{withBirthday("slow", "r1", "1990-03-15")}
	d := stuckDispatcher{release: make(chan struct{})}
	t.Cleanup(func() { close(d.release) })

	sc := newScanner(d, 50)
	sc.DispatchTimeout = 20 * time.Millisecond
	report, err := sc.Scan(context.Background(), src, target)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
}

func TestScan_ConcurrentDispatchKeepsCounts(t *testing.T) {
	src := newFakeSource()
	src.routes = []models.Route{{ID: "r1", Name: "route1"}}
	for i := 0; i < 23; i++ {
		src.users["r1"] = append(src.users["r1"], withBirthday(fmt.Sprint(i), "r1", "1990-03-15"))
	}
	d := &recordingDispatcher{outcome: func(u models.User) bool { return u.ID != "7" }}

	sc := newScanner(d, 10)
	sc.Concurrency = 4
	report, err := sc.Scan(context.Background(), src, target)
	require.NoError(t, err)

	assert.Equal(t, 22, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 3, src.userCalls["r1"])
}

func TestScan_RecordsDuration(t *testing.T) {
	src := newFakeSource()
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	calls := 0
	sc := newScanner(&recordingDispatcher{}, 50)
	sc.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 90 * time.Second)
	}

	report, err := sc.Scan(context.Background(), src, target)
	require.NoError(t, err)

	assert.Equal(t, start, report.StartedAt)
	assert.Equal(t, 90*time.Second, report.Duration)
}
