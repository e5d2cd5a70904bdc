package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/models"
)

// GormStore implements all store ports on top of a GORM connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ListCheckable returns all monitors whose status is not "paused".
func (s *GormStore) ListCheckable(ctx context.Context) ([]models.Monitor, error) {
	var monitors []models.Monitor
	err := s.db.WithContext(ctx).
		Where("status <> ?", models.MonitorStatusPaused).
		Order("id").
		Find(&monitors).Error
	if err != nil {
		return nil, fmt.Errorf("list checkable monitors: %w", err)
	}
	return monitors, nil
}

// UpdateStatus persists the classified status and last-checked timestamp.
func (s *GormStore) UpdateStatus(ctx context.Context, id int, status string, checkedAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.Monitor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"last_checked_at": checkedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("update monitor %d status: %w", id, err)
	}
	return nil
}

// Append inserts a heartbeat row.
func (s *GormStore) Append(ctx context.Context, hb *models.Heartbeat) error {
	if err := s.db.WithContext(ctx).Create(hb).Error; err != nil {
		return fmt.Errorf("append heartbeat for monitor %d: %w", hb.MonitorID, err)
	}
	return nil
}

// Open inserts a new ongoing incident. The partial unique index on
// (monitor_id) WHERE status='ongoing' rejects a second open for the same
// monitor if two checks race past the application-level guard.
func (s *GormStore) Open(ctx context.Context, inc *models.Incident) error {
	if err := s.db.WithContext(ctx).Create(inc).Error; err != nil {
		return fmt.Errorf("open incident for monitor %d: %w", inc.MonitorID, err)
	}
	return nil
}

// LatestOngoing returns the most recent ongoing incident for the monitor,
// or (nil, nil) when none exists.
func (s *GormStore) LatestOngoing(ctx context.Context, monitorID int) (*models.Incident, error) {
	var inc models.Incident
	err := s.db.WithContext(ctx).
		Where("monitor_id = ? AND status = ?", monitorID, models.IncidentStatusOngoing).
		Order("started_at DESC").
		First(&inc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest ongoing incident for monitor %d: %w", monitorID, err)
	}
	return &inc, nil
}

// Resolve saves the resolved incident fields.
func (s *GormStore) Resolve(ctx context.Context, inc *models.Incident) error {
	err := s.db.WithContext(ctx).
		Model(&models.Incident{}).
		Where("id = ?", inc.ID).
		Updates(map[string]interface{}{
			"status":      inc.Status,
			"resolved_at": inc.ResolvedAt,
			"duration":    inc.Duration,
		}).Error
	if err != nil {
		return fmt.Errorf("resolve incident %d: %w", inc.ID, err)
	}
	return nil
}

// ForMonitor returns the active notification channels attached to a monitor.
func (s *GormStore) ForMonitor(ctx context.Context, monitorID int) ([]models.NotificationChannel, error) {
	var channels []models.NotificationChannel
	err := s.db.WithContext(ctx).
		Joins("INNER JOIN monitor_notifications mn ON mn.notification_channel_id = notification_channels.id").
		Where("mn.monitor_id = ? AND notification_channels.active = ?", monitorID, true).
		Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("channels for monitor %d: %w", monitorID, err)
	}
	return channels, nil
}

// ActiveMonitorIDs returns the IDs of all monitors covered by a maintenance
// window that is active at the given time.
func (s *GormStore) ActiveMonitorIDs(ctx context.Context, now time.Time) ([]int, error) {
	var ids []int
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT mwm.monitor_id
		FROM maintenance_window_monitors mwm
		INNER JOIN maintenance_windows mw ON mw.id = mwm.maintenance_window_id
		WHERE mw.status = ?
		   OR (mw.status = ? AND mw.start_time <= ? AND mw.end_time >= ?)
	`, models.MaintenanceStatusActive, models.MaintenanceStatusScheduled, now, now).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("active maintenance monitor ids: %w", err)
	}
	return ids, nil
}
