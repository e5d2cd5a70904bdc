package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/probe"
)

// MonitorWithHeartbeat includes a monitor with its most recent heartbeat.
type MonitorWithHeartbeat struct {
	models.Monitor
	LastHeartbeat *models.Heartbeat `json:"last_heartbeat,omitempty"`
}

// HandleGetMonitors returns all monitors for the current user with their
// last heartbeat.
func HandleGetMonitors(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var monitors []models.Monitor
		err := db.Where("user_id = ?", user.ID).
			Order("created_at DESC").
			Find(&monitors).Error
		if err != nil {
			http.Error(w, "Failed to fetch monitors", http.StatusInternalServerError)
			return
		}

		out := make([]MonitorWithHeartbeat, len(monitors))
		ids := make([]int, 0, len(monitors))
		for i, mon := range monitors {
			out[i] = MonitorWithHeartbeat{Monitor: mon}
			ids = append(ids, mon.ID)
		}

		if len(ids) > 0 {
			var latest []models.Heartbeat
			db.Raw(`
				SELECT DISTINCT ON (monitor_id) *
				FROM heartbeats
				WHERE monitor_id IN ?
				ORDER BY monitor_id, created_at DESC
			`, ids).Scan(&latest)

			byMonitor := make(map[int]models.Heartbeat, len(latest))
			for _, hb := range latest {
				byMonitor[hb.MonitorID] = hb
			}
			for i, mon := range monitors {
				if hb, ok := byMonitor[mon.ID]; ok {
					out[i].LastHeartbeat = &hb
				}
			}
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// HandleGetMonitor returns a single monitor by ID.
func HandleGetMonitor(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon, ok := loadOwnedMonitor(w, r, db)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, mon)
	}
}

// HandleCreateMonitor creates a new monitor.
func HandleCreateMonitor(db *gorm.DB, registry *probe.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var mon models.Monitor
		if err := json.NewDecoder(r.Body).Decode(&mon); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		mon.ID = 0
		mon.UserID = user.ID
		mon.Status = models.MonitorStatusPending
		if mon.Interval <= 0 {
			mon.Interval = 60
		}
		if mon.Timeout <= 0 {
			mon.Timeout = 30
		}

		if err := registry.Validate(&mon); err != nil {
			http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}

		if err := db.Create(&mon).Error; err != nil {
			http.Error(w, "Failed to create monitor", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, mon)
	}
}

// HandleUpdateMonitor updates an existing monitor.
func HandleUpdateMonitor(db *gorm.DB, registry *probe.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon, ok := loadOwnedMonitor(w, r, db)
		if !ok {
			return
		}

		var update models.Monitor
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		mon.Name = update.Name
		mon.Type = update.Type
		mon.URL = update.URL
		mon.Port = update.Port
		mon.Keyword = update.Keyword
		if update.Interval > 0 {
			mon.Interval = update.Interval
		}
		if update.Timeout > 0 {
			mon.Timeout = update.Timeout
		}

		if err := registry.Validate(mon); err != nil {
			http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}

		if err := db.Save(mon).Error; err != nil {
			http.Error(w, "Failed to update monitor", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, mon)
	}
}

// HandleDeleteMonitor deletes a monitor and its dependent records.
func HandleDeleteMonitor(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon, ok := loadOwnedMonitor(w, r, db)
		if !ok {
			return
		}
		if err := db.Delete(mon).Error; err != nil {
			http.Error(w, "Failed to delete monitor", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandlePauseMonitor pauses a monitor, removing it from scheduling.
func HandlePauseMonitor(db *gorm.DB) http.HandlerFunc {
	return setMonitorStatus(db, models.MonitorStatusPaused)
}

// HandleResumeMonitor resumes a paused monitor. It goes back to pending
// until the next check classifies it.
func HandleResumeMonitor(db *gorm.DB) http.HandlerFunc {
	return setMonitorStatus(db, models.MonitorStatusPending)
}

func setMonitorStatus(db *gorm.DB, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon, ok := loadOwnedMonitor(w, r, db)
		if !ok {
			return
		}
		if err := db.Model(mon).Update("status", status).Error; err != nil {
			http.Error(w, "Failed to update monitor", http.StatusInternalServerError)
			return
		}
		mon.Status = status
		writeJSON(w, http.StatusOK, mon)
	}
}

// HandleGetHeartbeats returns recent heartbeats for a monitor, newest
// first.
func HandleGetHeartbeats(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon, ok := loadOwnedMonitor(w, r, db)
		if !ok {
			return
		}

		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}

		var heartbeats []models.Heartbeat
		err := db.Where("monitor_id = ?", mon.ID).
			Order("created_at DESC").
			Limit(limit).
			Find(&heartbeats).Error
		if err != nil {
			http.Error(w, "Failed to fetch heartbeats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, heartbeats)
	}
}

// loadOwnedMonitor fetches the monitor from the id URL param, enforcing
// ownership. It writes the error response itself when the lookup fails.
func loadOwnedMonitor(w http.ResponseWriter, r *http.Request, db *gorm.DB) (*models.Monitor, bool) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	var mon models.Monitor
	err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&mon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Monitor not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch monitor", http.StatusInternalServerError)
		}
		return nil, false
	}
	return &mon, true
}
