package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/models"
)

// maintenanceRequest is the create/update payload for maintenance windows.
type maintenanceRequest struct {
	models.MaintenanceWindow
	MonitorIDs []int `json:"monitor_ids"`
}

// HandleGetMaintenanceWindows returns the current user's maintenance
// windows.
func HandleGetMaintenanceWindows(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var windows []models.MaintenanceWindow
		err := db.Where("user_id = ?", user.ID).Order("start_time DESC").Find(&windows).Error
		if err != nil {
			http.Error(w, "Failed to fetch maintenance windows", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, windows)
	}
}

// HandleCreateMaintenanceWindow creates a maintenance window and attaches
// the given monitors to it.
func HandleCreateMaintenanceWindow(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var req maintenanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validateWindow(&req.MaintenanceWindow); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		window := req.MaintenanceWindow
		window.ID = 0
		window.UserID = user.ID
		if window.Status == "" {
			window.Status = models.MaintenanceStatusScheduled
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&window).Error; err != nil {
				return err
			}
			return attachWindowMonitors(tx, &window, req.MonitorIDs, user.ID)
		})
		if err != nil {
			http.Error(w, "Failed to create maintenance window", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, window)
	}
}

// HandleUpdateMaintenanceWindow updates a window and its monitor set.
func HandleUpdateMaintenanceWindow(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		window, ok := loadOwnedWindow(w, r, db)
		if !ok {
			return
		}

		var req maintenanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validateWindow(&req.MaintenanceWindow); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		window.Title = req.Title
		window.StartTime = req.StartTime
		window.EndTime = req.EndTime
		if req.Status != "" {
			window.Status = req.Status
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(window).Error; err != nil {
				return err
			}
			if req.MonitorIDs == nil {
				return nil
			}
			if err := tx.Where("maintenance_window_id = ?", window.ID).
				Delete(&models.MaintenanceWindowMonitor{}).Error; err != nil {
				return err
			}
			return attachWindowMonitors(tx, window, req.MonitorIDs, user.ID)
		})
		if err != nil {
			http.Error(w, "Failed to update maintenance window", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, window)
	}
}

// HandleDeleteMaintenanceWindow deletes a maintenance window.
func HandleDeleteMaintenanceWindow(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, ok := loadOwnedWindow(w, r, db)
		if !ok {
			return
		}
		if err := db.Delete(window).Error; err != nil {
			http.Error(w, "Failed to delete maintenance window", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func validateWindow(window *models.MaintenanceWindow) error {
	if window.Title == "" {
		return errors.New("title is required")
	}
	if window.StartTime.IsZero() || window.EndTime.IsZero() {
		return errors.New("start_time and end_time are required")
	}
	if !window.EndTime.After(window.StartTime) {
		return errors.New("end_time must be after start_time")
	}
	switch window.Status {
	case "", models.MaintenanceStatusScheduled, models.MaintenanceStatusActive,
		models.MaintenanceStatusCompleted, models.MaintenanceStatusCancelled:
		return nil
	default:
		return errors.New("invalid status")
	}
}

func attachWindowMonitors(tx *gorm.DB, window *models.MaintenanceWindow, monitorIDs []int, userID int) error {
	for _, id := range monitorIDs {
		var mon models.Monitor
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&mon).Error; err != nil {
			return err
		}
		link := models.MaintenanceWindowMonitor{
			MaintenanceWindowID: window.ID,
			MonitorID:           mon.ID,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func loadOwnedWindow(w http.ResponseWriter, r *http.Request, db *gorm.DB) (*models.MaintenanceWindow, bool) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	var window models.MaintenanceWindow
	err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&window).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Maintenance window not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch maintenance window", http.StatusInternalServerError)
		}
		return nil, false
	}
	return &window, true
}
