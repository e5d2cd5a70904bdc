package store

import (
	"context"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

// Ports consumed by the checker and scheduler. The GORM adapter below
// implements all of them; tests substitute in-memory fakes.

// Monitors reads and updates monitor records.
type Monitors interface {
	// ListCheckable returns all monitors whose status is not "paused".
	ListCheckable(ctx context.Context) ([]models.Monitor, error)

	// UpdateStatus persists the classified status and last-checked timestamp.
	UpdateStatus(ctx context.Context, id int, status string, checkedAt time.Time) error
}

// Heartbeats is the append-only check log.
type Heartbeats interface {
	Append(ctx context.Context, hb *models.Heartbeat) error
}

// Incidents manages the incident lifecycle.
type Incidents interface {
	Open(ctx context.Context, inc *models.Incident) error

	// LatestOngoing returns the most recent ongoing incident for the
	// monitor, or (nil, nil) when none exists.
	LatestOngoing(ctx context.Context, monitorID int) (*models.Incident, error)

	Resolve(ctx context.Context, inc *models.Incident) error
}

// Channels looks up the notification channels attached to a monitor.
type Channels interface {
	ForMonitor(ctx context.Context, monitorID int) ([]models.NotificationChannel, error)
}

// Maintenance resolves which monitors are under an active window.
type Maintenance interface {
	// ActiveMonitorIDs returns the IDs of all monitors covered by a
	// maintenance window that is active at the given time.
	ActiveMonitorIDs(ctx context.Context, now time.Time) ([]int, error)
}
