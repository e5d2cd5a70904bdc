package models

import "time"

// Incident statuses.
const (
	IncidentStatusOngoing      = "ongoing"
	IncidentStatusResolved     = "resolved"
	IncidentStatusAcknowledged = "acknowledged"
)

// Incident represents one continuous down period for a monitor. At most one
// ongoing incident exists per monitor; a partial unique index on
// (monitor_id) WHERE status='ongoing' enforces this at the store.
type Incident struct {
	ID            int        `json:"id" gorm:"primaryKey;autoIncrement"`
	MonitorID     int        `json:"monitor_id" gorm:"not null;index"`
	Status        string     `json:"status" gorm:"not null;default:'ongoing'"`
	RootCause     string     `json:"root_cause"`
	StartedAt     time.Time  `json:"started_at" gorm:"not null"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	Duration      string     `json:"duration"` // human readable, set at resolution
	CommentsCount int        `json:"comments_count" gorm:"default:0"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationship (optional, for eager loading)
	Monitor Monitor `json:"-" gorm:"foreignKey:MonitorID"`
}

// TableName specifies the table name for Incident
func (Incident) TableName() string {
	return "incidents"
}
