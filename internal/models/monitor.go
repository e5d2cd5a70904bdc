package models

import "time"

// Monitor statuses. "paused" is a scheduling state set from the dashboard;
// the checker only ever writes "up" or "down". "pending" is the state of a
// monitor that has never been checked.
const (
	MonitorStatusUp      = "up"
	MonitorStatusDown    = "down"
	MonitorStatusPaused  = "paused"
	MonitorStatusPending = "pending"
)

// Monitor types.
const (
	MonitorTypeHTTP    = "http"
	MonitorTypeKeyword = "keyword"
	MonitorTypePing    = "ping"
	MonitorTypePort    = "port"
)

// Monitor represents a configured check target.
type Monitor struct {
	ID            int        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        int        `json:"user_id" gorm:"not null;index"`
	Name          string     `json:"name" gorm:"not null"`
	Type          string     `json:"type" gorm:"not null;index"` // http, keyword, ping, port
	URL           string     `json:"url"`                        // full URL for http/keyword, host for ping/port
	Port          int        `json:"port"`                       // port type only
	Keyword       string     `json:"keyword"`                    // keyword type only
	Interval      int        `json:"interval" gorm:"default:60"` // seconds
	Timeout       int        `json:"timeout" gorm:"default:30"`  // seconds
	Status        string     `json:"status" gorm:"default:'pending';index"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships (optional, for eager loading)
	Heartbeats    []Heartbeat           `json:"-" gorm:"foreignKey:MonitorID"`
	Incidents     []Incident            `json:"-" gorm:"foreignKey:MonitorID"`
	Notifications []NotificationChannel `json:"-" gorm:"many2many:monitor_notifications"`
}

// TableName specifies the table name for Monitor
func (Monitor) TableName() string {
	return "monitors"
}

// Paused reports whether the monitor is excluded from scheduling.
func (m *Monitor) Paused() bool {
	return m.Status == MonitorStatusPaused
}
