package models

import "time"

// Notification channel types.
const (
	ChannelTypeWebhook = "webhook"
	ChannelTypeEmail   = "email"
)

// NotificationChannel is a user-configured alert destination: a webhook URL
// or an email address. Channels are attached to monitors through the
// monitor_notifications join table and are read-only from the checker's
// perspective.
type NotificationChannel struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int       `json:"user_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Type      string    `json:"type" gorm:"not null"` // webhook, email
	Target    string    `json:"target" gorm:"not null"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for NotificationChannel
func (NotificationChannel) TableName() string {
	return "notification_channels"
}

// MonitorNotification links monitors to notification channels.
type MonitorNotification struct {
	MonitorID int `json:"monitor_id" gorm:"primaryKey"`
	ChannelID int `json:"channel_id" gorm:"primaryKey;column:notification_channel_id"`
}

// TableName specifies the table name for MonitorNotification
func (MonitorNotification) TableName() string {
	return "monitor_notifications"
}
