package models

import "time"

// StatusPage is a public, unauthenticated view over a set of monitors.
type StatusPage struct {
	ID          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int       `json:"user_id" gorm:"not null;index"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Published   bool      `json:"published" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationship (optional, for eager loading)
	Monitors []Monitor `json:"-" gorm:"many2many:status_page_monitors"`
}

// TableName specifies the table name for StatusPage
func (StatusPage) TableName() string {
	return "status_pages"
}

// StatusPageMonitor links status pages to the monitors they display.
type StatusPageMonitor struct {
	StatusPageID int `json:"status_page_id" gorm:"primaryKey"`
	MonitorID    int `json:"monitor_id" gorm:"primaryKey"`
	DisplayOrder int `json:"display_order" gorm:"default:0"`
}

// TableName specifies the table name for StatusPageMonitor
func (StatusPageMonitor) TableName() string {
	return "status_page_monitors"
}
