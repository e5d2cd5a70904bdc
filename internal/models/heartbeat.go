package models

import "time"

// Heartbeat is the immutable record of a single check. One row is appended
// per check regardless of outcome; rows are never updated or deleted by the
// checker (retention cleanup happens in a background job).
type Heartbeat struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	MonitorID int       `json:"monitor_id" gorm:"not null;index:idx_heartbeats_monitor_time"`
	Status    string    `json:"status" gorm:"not null"` // up, down
	Latency   int       `json:"latency"`                // milliseconds
	Code      int       `json:"code"`                   // HTTP response code, 0 when absent
	CreatedAt time.Time `json:"created_at" gorm:"not null;index:idx_heartbeats_monitor_time,sort:desc"`

	// Relationship (optional, for eager loading)
	Monitor Monitor `json:"-" gorm:"foreignKey:MonitorID"`
}

// TableName specifies the table name for Heartbeat
func (Heartbeat) TableName() string {
	return "heartbeats"
}
