package models

import "time"

// Maintenance window statuses.
const (
	MaintenanceStatusScheduled = "scheduled"
	MaintenanceStatusActive    = "active"
	MaintenanceStatusCompleted = "completed"
	MaintenanceStatusCancelled = "cancelled"
)

// MaintenanceWindow is a planned downtime period. Monitors covered by an
// active window are skipped entirely by the scheduler: no probe, no
// heartbeat, no status write.
type MaintenanceWindow struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int       `json:"user_id" gorm:"not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	Status    string    `json:"status" gorm:"not null;default:'scheduled'"`
	StartTime time.Time `json:"start_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationship (optional, for eager loading)
	Monitors []Monitor `json:"-" gorm:"many2many:maintenance_window_monitors"`
}

// TableName specifies the table name for MaintenanceWindow
func (MaintenanceWindow) TableName() string {
	return "maintenance_windows"
}

// ActiveAt reports whether the window suppresses checks at the given time:
// either explicitly activated, or scheduled and inside its time range.
func (w *MaintenanceWindow) ActiveAt(now time.Time) bool {
	switch w.Status {
	case MaintenanceStatusActive:
		return true
	case MaintenanceStatusScheduled:
		return !now.Before(w.StartTime) && !now.After(w.EndTime)
	default:
		return false
	}
}

// MaintenanceWindowMonitor links maintenance windows to monitors.
type MaintenanceWindowMonitor struct {
	MaintenanceWindowID int `json:"maintenance_window_id" gorm:"primaryKey"`
	MonitorID           int `json:"monitor_id" gorm:"primaryKey"`
}

// TableName specifies the table name for MaintenanceWindowMonitor
func (MaintenanceWindowMonitor) TableName() string {
	return "maintenance_window_monitors"
}
