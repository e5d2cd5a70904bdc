package uptime

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/models"
)

// Calculator aggregates heartbeats into uptime statistics for the dashboard.
type Calculator struct {
	db *gorm.DB
}

// NewCalculator creates a Calculator.
func NewCalculator(db *gorm.DB) *Calculator {
	return &Calculator{db: db}
}

// Stats represents uptime statistics for a monitor over a period.
type Stats struct {
	MonitorID        int     `json:"monitor_id"`
	UptimePercentage float64 `json:"uptime_percentage"`
	TotalChecks      int     `json:"total_checks"`
	UpChecks         int     `json:"up_checks"`
	DownChecks       int     `json:"down_checks"`
	AverageLatency   float64 `json:"average_latency"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
}

// ForPeriod calculates uptime for the trailing period.
func (c *Calculator) ForPeriod(ctx context.Context, monitorID int, period time.Duration) (*Stats, error) {
	endTime := time.Now()
	startTime := endTime.Add(-period)

	var row struct {
		TotalChecks    int
		UpChecks       int
		DownChecks     int
		AverageLatency float64
	}
	err := c.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_checks,
			COUNT(*) FILTER (WHERE status = ?) AS up_checks,
			COUNT(*) FILTER (WHERE status = ?) AS down_checks,
			COALESCE(AVG(latency) FILTER (WHERE status = ?), 0) AS average_latency
		FROM heartbeats
		WHERE monitor_id = ? AND created_at >= ? AND created_at <= ?
	`, models.MonitorStatusUp, models.MonitorStatusDown, models.MonitorStatusUp,
		monitorID, startTime, endTime).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("uptime stats for monitor %d: %w", monitorID, err)
	}

	pct := 0.0
	if row.TotalChecks > 0 {
		pct = float64(row.UpChecks) / float64(row.TotalChecks) * 100
	}

	return &Stats{
		MonitorID:        monitorID,
		UptimePercentage: pct,
		TotalChecks:      row.TotalChecks,
		UpChecks:         row.UpChecks,
		DownChecks:       row.DownChecks,
		AverageLatency:   row.AverageLatency,
		StartTime:        startTime.Format(time.RFC3339),
		EndTime:          endTime.Format(time.RFC3339),
	}, nil
}
