package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/models"
)

// HandleGetIncidents returns the current user's incidents, newest first.
// An optional monitor_id query parameter narrows to one monitor.
func HandleGetIncidents(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		q := db.Joins("INNER JOIN monitors ON monitors.id = incidents.monitor_id").
			Where("monitors.user_id = ?", user.ID)

		if v := r.URL.Query().Get("monitor_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "Invalid monitor_id", http.StatusBadRequest)
				return
			}
			q = q.Where("incidents.monitor_id = ?", id)
		}

		var incidents []models.Incident
		if err := q.Order("incidents.started_at DESC").Limit(200).Find(&incidents).Error; err != nil {
			http.Error(w, "Failed to fetch incidents", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, incidents)
	}
}

// HandleAcknowledgeIncident marks an ongoing incident as acknowledged.
// Acknowledged is terminal: the checker's resolution pass only touches
// ongoing incidents.
func HandleAcknowledgeIncident(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		id := chi.URLParam(r, "id")

		var inc models.Incident
		err := db.Joins("INNER JOIN monitors ON monitors.id = incidents.monitor_id").
			Where("incidents.id = ? AND monitors.user_id = ?", id, user.ID).
			First(&inc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Incident not found", http.StatusNotFound)
			} else {
				http.Error(w, "Failed to fetch incident", http.StatusInternalServerError)
			}
			return
		}

		if inc.Status != models.IncidentStatusOngoing {
			http.Error(w, "Only ongoing incidents can be acknowledged", http.StatusConflict)
			return
		}

		if err := db.Model(&inc).Update("status", models.IncidentStatusAcknowledged).Error; err != nil {
			http.Error(w, "Failed to acknowledge incident", http.StatusInternalServerError)
			return
		}
		inc.Status = models.IncidentStatusAcknowledged
		writeJSON(w, http.StatusOK, inc)
	}
}
