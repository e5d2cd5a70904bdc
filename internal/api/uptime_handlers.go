package api

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/uptime"
)

var uptimePeriods = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// HandleGetMonitorUptime returns uptime statistics for a monitor. The
// period query parameter selects 24h, 7d, 30d or 90d (default 24h).
func HandleGetMonitorUptime(db *gorm.DB, calc *uptime.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon, ok := loadOwnedMonitor(w, r, db)
		if !ok {
			return
		}

		period := 24 * time.Hour
		if v := r.URL.Query().Get("period"); v != "" {
			p, ok := uptimePeriods[v]
			if !ok {
				http.Error(w, "Invalid period, use 24h, 7d, 30d or 90d", http.StatusBadRequest)
				return
			}
			period = p
		}

		stats, err := calc.ForPeriod(r.Context(), mon.ID, period)
		if err != nil {
			http.Error(w, "Failed to calculate uptime", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
