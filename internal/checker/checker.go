package checker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/probe"
	"github.com/pulseboard/pulseboard/internal/store"
)

// Prober classifies one monitor. Implemented by probe.Registry; tests stub
// it.
type Prober interface {
	Probe(ctx context.Context, m *models.Monitor) probe.Outcome
}

// Notifier fans a transition event out to the monitor's channels.
type Notifier interface {
	Dispatch(ctx context.Context, monitorID int, ev notify.Event)
}

// Broadcaster pushes live updates to connected dashboard clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Result is what one check reports back to the scheduler cycle.
type Result struct {
	MonitorID int    `json:"id"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Latency   int    `json:"latency"` // milliseconds
	Code      int    `json:"code"`    // 0 when absent
}

// Checker runs one probe for one monitor and applies the resulting state
// transition: heartbeat append, notification fan-out, incident lifecycle,
// monitor status write. All persistence inside a check is best-effort:
// failures are logged and the check continues, so a partial record beats no
// record. Checks for the same monitor are serialized with a per-monitor
// lock; the store's partial unique index on ongoing incidents backstops the
// at-most-one-ongoing invariant across processes.
type Checker struct {
	monitors   store.Monitors
	heartbeats store.Heartbeats
	incidents  store.Incidents
	prober     Prober
	notifier   Notifier
	broadcast  Broadcaster // optional
	log        *zap.Logger

	// Now is the clock used for heartbeats and incident timestamps.
	// Overridable in tests.
	Now func() time.Time

	locks sync.Map // monitor ID -> *sync.Mutex
}

// New creates a Checker. broadcast may be nil.
func New(monitors store.Monitors, heartbeats store.Heartbeats, incidents store.Incidents,
	prober Prober, notifier Notifier, broadcast Broadcaster, log *zap.Logger) *Checker {
	return &Checker{
		monitors:   monitors,
		heartbeats: heartbeats,
		incidents:  incidents,
		prober:     prober,
		notifier:   notifier,
		broadcast:  broadcast,
		log:        log,
		Now:        time.Now,
	}
}

// Check probes the monitor and reconciles its state. It never returns an
// error: network failures classify as down, persistence failures are logged
// and skipped. The previous status is snapshotted from the monitor copy
// before any write, since the transition decision depends on it.
func (c *Checker) Check(ctx context.Context, m models.Monitor) Result {
	lock := c.lockFor(m.ID)
	lock.Lock()
	defer lock.Unlock()

	previous := m.Status

	out := c.prober.Probe(ctx, &m)
	status := models.MonitorStatusDown
	if out.Up {
		status = models.MonitorStatusUp
	}
	now := c.Now()

	// Heartbeat is appended unconditionally, transition or not.
	hb := &models.Heartbeat{
		MonitorID: m.ID,
		Status:    status,
		Latency:   out.Latency,
		Code:      out.Code,
		CreatedAt: now,
	}
	if err := c.heartbeats.Append(ctx, hb); err != nil {
		c.log.Error("failed to append heartbeat", zap.Int("monitor_id", m.ID), zap.Error(err))
	}

	if transitioned(previous, status) {
		ev := notify.Event{
			Type:        notify.EventDown,
			MonitorID:   m.ID,
			MonitorName: m.Name,
			MonitorURL:  m.URL,
			Code:        out.Code,
			Timestamp:   now,
		}
		if status == models.MonitorStatusUp {
			ev.Type = notify.EventUp
		}
		c.notifier.Dispatch(ctx, m.ID, ev)
		c.reconcileIncident(ctx, &m, status, out, now)

		c.log.Info("monitor transitioned",
			zap.Int("monitor_id", m.ID),
			zap.String("from", previous),
			zap.String("to", status),
			zap.String("reason", out.Message))
	}

	if err := c.monitors.UpdateStatus(ctx, m.ID, status, now); err != nil {
		c.log.Error("failed to update monitor status", zap.Int("monitor_id", m.ID), zap.Error(err))
	}

	if c.broadcast != nil {
		if err := c.broadcast.Broadcast("heartbeat", hb); err != nil {
			c.log.Warn("heartbeat broadcast failed", zap.Int("monitor_id", m.ID), zap.Error(err))
		}
	}

	return Result{
		MonitorID: m.ID,
		URL:       m.URL,
		Status:    status,
		Latency:   out.Latency,
		Code:      out.Code,
	}
}

// transitioned reports whether incident and notification work is due. A
// monitor seen for the first time (previous "pending") only transitions when
// the check fails: an incident for a target that was never up is wanted, a
// recovery alert for one is not.
func transitioned(previous, current string) bool {
	switch previous {
	case models.MonitorStatusUp:
		return current == models.MonitorStatusDown
	case models.MonitorStatusDown:
		return current == models.MonitorStatusUp
	case models.MonitorStatusPending:
		return current == models.MonitorStatusDown
	default:
		return false
	}
}

// reconcileIncident opens an incident on a down transition and resolves the
// ongoing one on an up transition. The open is conditional on no existing
// ongoing row; a missing row at resolution time is a no-op, not an error.
func (c *Checker) reconcileIncident(ctx context.Context, m *models.Monitor, status string, out probe.Outcome, now time.Time) {
	if status == models.MonitorStatusDown {
		existing, err := c.incidents.LatestOngoing(ctx, m.ID)
		if err != nil {
			c.log.Error("failed to query ongoing incident", zap.Int("monitor_id", m.ID), zap.Error(err))
			return
		}
		if existing != nil {
			return
		}
		inc := &models.Incident{
			MonitorID: m.ID,
			Status:    models.IncidentStatusOngoing,
			RootCause: rootCause(out),
			StartedAt: now,
		}
		if err := c.incidents.Open(ctx, inc); err != nil {
			c.log.Error("failed to open incident", zap.Int("monitor_id", m.ID), zap.Error(err))
		}
		return
	}

	inc, err := c.incidents.LatestOngoing(ctx, m.ID)
	if err != nil {
		c.log.Error("failed to query ongoing incident", zap.Int("monitor_id", m.ID), zap.Error(err))
		return
	}
	if inc == nil {
		return
	}
	resolved := now
	inc.Status = models.IncidentStatusResolved
	inc.ResolvedAt = &resolved
	inc.Duration = FormatDuration(resolved.Sub(inc.StartedAt))
	if err := c.incidents.Resolve(ctx, inc); err != nil {
		c.log.Error("failed to resolve incident", zap.Int("incident_id", inc.ID), zap.Error(err))
	}
}

// rootCause derives the incident cause from the failed probe.
func rootCause(out probe.Outcome) string {
	if out.Code != 0 {
		return fmt.Sprintf("%d Error", out.Code)
	}
	return "Connection Failed"
}

// FormatDuration renders an incident length as "{h}h {m}m", or "{m}m" under
// an hour, with total minutes rounded from elapsed milliseconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int((d.Milliseconds() + 30_000) / 60_000)
	if h := mins / 60; h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins%60)
	}
	return fmt.Sprintf("%dm", mins)
}

func (c *Checker) lockFor(id int) *sync.Mutex {
	v, _ := c.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}
