package checker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/probe"
)

type fakeMonitors struct {
	updates []statusUpdate
	err     error
}

type statusUpdate struct {
	id        int
	status    string
	checkedAt time.Time
}

func (f *fakeMonitors) ListCheckable(ctx context.Context) ([]models.Monitor, error) {
	return nil, nil
}

func (f *fakeMonitors) UpdateStatus(ctx context.Context, id int, status string, checkedAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, statusUpdate{id, status, checkedAt})
	return nil
}

type fakeHeartbeats struct {
	appended []models.Heartbeat
	err      error
}

func (f *fakeHeartbeats) Append(ctx context.Context, hb *models.Heartbeat) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, *hb)
	return nil
}

type fakeIncidents struct {
	ongoing  *models.Incident
	opened   []models.Incident
	resolved []models.Incident
	err      error
}

func (f *fakeIncidents) Open(ctx context.Context, inc *models.Incident) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, *inc)
	f.ongoing = inc
	return nil
}

func (f *fakeIncidents) LatestOngoing(ctx context.Context, monitorID int) (*models.Incident, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ongoing, nil
}

func (f *fakeIncidents) Resolve(ctx context.Context, inc *models.Incident) error {
	if f.err != nil {
		return f.err
	}
	f.resolved = append(f.resolved, *inc)
	f.ongoing = nil
	return nil
}

type fakeNotifier struct {
	events []notify.Event
}

func (f *fakeNotifier) Dispatch(ctx context.Context, monitorID int, ev notify.Event) {
	f.events = append(f.events, ev)
}

type fakeProber struct {
	out probe.Outcome
}

func (f *fakeProber) Probe(ctx context.Context, m *models.Monitor) probe.Outcome {
	return f.out
}

type harness struct {
	checker    *Checker
	monitors   *fakeMonitors
	heartbeats *fakeHeartbeats
	incidents  *fakeIncidents
	notifier   *fakeNotifier
	now        time.Time
}

func newHarness(t *testing.T, out probe.Outcome) *harness {
	t.Helper()
	h := &harness{
		monitors:   &fakeMonitors{},
		heartbeats: &fakeHeartbeats{},
		incidents:  &fakeIncidents{},
		notifier:   &fakeNotifier{},
		now:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	h.checker = New(h.monitors, h.heartbeats, h.incidents,
		&fakeProber{out: out}, h.notifier, nil, zap.NewNop())
	h.checker.Now = func() time.Time { return h.now }
	return h
}

func monitorWithStatus(status string) models.Monitor {
	return models.Monitor{
		ID:     7,
		Name:   "API",
		Type:   models.MonitorTypeHTTP,
		URL:    "https://api.example.com/health",
		Status: status,
	}
}

func TestCheckAppendsHeartbeatWithoutTransition(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: true, Latency: 42, Code: 200})

	res := h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusUp))

	require.Len(t, h.heartbeats.appended, 1)
	hb := h.heartbeats.appended[0]
	assert.Equal(t, 7, hb.MonitorID)
	assert.Equal(t, models.MonitorStatusUp, hb.Status)
	assert.Equal(t, 42, hb.Latency)
	assert.Equal(t, 200, hb.Code)
	assert.Equal(t, h.now, hb.CreatedAt)

	assert.Empty(t, h.notifier.events)
	assert.Empty(t, h.incidents.opened)
	assert.Empty(t, h.incidents.resolved)

	assert.Equal(t, models.MonitorStatusUp, res.Status)
	assert.Equal(t, 42, res.Latency)
}

func TestCheckAlwaysWritesMonitorStatus(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: false, Code: 503})

	h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusDown))

	require.Len(t, h.monitors.updates, 1)
	assert.Equal(t, statusUpdate{7, models.MonitorStatusDown, h.now}, h.monitors.updates[0])
	assert.Empty(t, h.notifier.events, "down to down is not a transition")
}

func TestCheckDownTransitionOpensIncident(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: false, Code: 500, Message: "HTTP 500"})

	h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusUp))

	require.Len(t, h.incidents.opened, 1)
	inc := h.incidents.opened[0]
	assert.Equal(t, 7, inc.MonitorID)
	assert.Equal(t, models.IncidentStatusOngoing, inc.Status)
	assert.Equal(t, "500 Error", inc.RootCause)
	assert.Equal(t, h.now, inc.StartedAt)

	require.Len(t, h.notifier.events, 1)
	ev := h.notifier.events[0]
	assert.Equal(t, notify.EventDown, ev.Type)
	assert.Equal(t, "API", ev.MonitorName)
	assert.Equal(t, 500, ev.Code)
}

func TestCheckConnectionFailureRootCause(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: false, Code: 0, Message: "dial tcp: connection refused"})

	h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusUp))

	require.Len(t, h.incidents.opened, 1)
	assert.Equal(t, "Connection Failed", h.incidents.opened[0].RootCause)
}

func TestCheckDownTransitionSkipsOpenWhenOngoingExists(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: false, Code: 502})
	h.incidents.ongoing = &models.Incident{
		ID:        1,
		MonitorID: 7,
		Status:    models.IncidentStatusOngoing,
		StartedAt: h.now.Add(-10 * time.Minute),
	}

	h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusUp))

	assert.Empty(t, h.incidents.opened, "a second ongoing incident must not be opened")
	require.Len(t, h.notifier.events, 1, "notification still fires on the transition")
}

func TestCheckUpTransitionResolvesIncident(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: true, Latency: 30, Code: 200})
	h.incidents.ongoing = &models.Incident{
		ID:        3,
		MonitorID: 7,
		Status:    models.IncidentStatusOngoing,
		StartedAt: h.now.Add(-95 * time.Minute),
	}

	h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusDown))

	require.Len(t, h.incidents.resolved, 1)
	inc := h.incidents.resolved[0]
	assert.Equal(t, models.IncidentStatusResolved, inc.Status)
	require.NotNil(t, inc.ResolvedAt)
	assert.Equal(t, h.now, *inc.ResolvedAt)
	assert.Equal(t, "1h 35m", inc.Duration)

	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, notify.EventUp, h.notifier.events[0].Type)
}

func TestCheckUpTransitionWithoutIncidentIsNoop(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: true, Latency: 12, Code: 200})

	h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusDown))

	assert.Empty(t, h.incidents.resolved)
	require.Len(t, h.notifier.events, 1, "recovery notification fires regardless")
}

func TestCheckPendingToDownOpensIncident(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: false, Code: 404})

	h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusPending))

	require.Len(t, h.incidents.opened, 1)
	assert.Equal(t, "404 Error", h.incidents.opened[0].RootCause)
	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, notify.EventDown, h.notifier.events[0].Type)
}

func TestCheckPendingToUpIsQuiet(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: true, Latency: 20, Code: 200})

	h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusPending))

	assert.Empty(t, h.notifier.events, "a first successful check is not a recovery")
	assert.Empty(t, h.incidents.opened)
	require.Len(t, h.heartbeats.appended, 1)
	require.Len(t, h.monitors.updates, 1)
	assert.Equal(t, models.MonitorStatusUp, h.monitors.updates[0].status)
}

func TestCheckSurvivesPersistenceFailures(t *testing.T) {
	h := newHarness(t, probe.Outcome{Up: false, Code: 500})
	h.heartbeats.err = errors.New("db down")
	h.incidents.err = errors.New("db down")
	h.monitors.err = errors.New("db down")

	res := h.checker.Check(context.Background(), monitorWithStatus(models.MonitorStatusUp))

	assert.Equal(t, models.MonitorStatusDown, res.Status)
	require.Len(t, h.notifier.events, 1, "notification is independent of persistence")
}

func TestTransitioned(t *testing.T) {
	cases := []struct {
		previous, current string
		want              bool
	}{
		{models.MonitorStatusUp, models.MonitorStatusDown, true},
		{models.MonitorStatusDown, models.MonitorStatusUp, true},
		{models.MonitorStatusUp, models.MonitorStatusUp, false},
		{models.MonitorStatusDown, models.MonitorStatusDown, false},
		{models.MonitorStatusPending, models.MonitorStatusDown, true},
		{models.MonitorStatusPending, models.MonitorStatusUp, false},
		{models.MonitorStatusPaused, models.MonitorStatusUp, false},
		{models.MonitorStatusPaused, models.MonitorStatusDown, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, transitioned(tc.previous, tc.current),
			"%s -> %s", tc.previous, tc.current)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m"},
		{29 * time.Second, "0m"},
		{30 * time.Second, "1m"},
		{5 * time.Minute, "5m"},
		{59*time.Minute + 29*time.Second, "59m"},
		{59*time.Minute + 30*time.Second, "1h 0m"},
		{95 * time.Minute, "1h 35m"},
		{26*time.Hour + 5*time.Minute, "26h 5m"},
		{-time.Minute, "0m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.d), "%v", tc.d)
	}
}
