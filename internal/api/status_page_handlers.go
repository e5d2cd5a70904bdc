package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/models"
)

// statusPageRequest is the create/update payload for status pages.
type statusPageRequest struct {
	models.StatusPage
	MonitorIDs []int `json:"monitor_ids"`
}

// publicMonitor is the reduced monitor view exposed on public status pages.
type publicMonitor struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// HandleGetStatusPages returns the current user's status pages.
func HandleGetStatusPages(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var pages []models.StatusPage
		err := db.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&pages).Error
		if err != nil {
			http.Error(w, "Failed to fetch status pages", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, pages)
	}
}

// HandleCreateStatusPage creates a status page.
func HandleCreateStatusPage(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var req statusPageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Slug == "" || req.Title == "" {
			http.Error(w, "slug and title are required", http.StatusBadRequest)
			return
		}

		page := req.StatusPage
		page.ID = 0
		page.UserID = user.ID

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&page).Error; err != nil {
				return err
			}
			return attachPageMonitors(tx, &page, req.MonitorIDs, user.ID)
		})
		if err != nil {
			http.Error(w, "Failed to create status page", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, page)
	}
}

// HandleUpdateStatusPage updates a status page and its monitor set.
func HandleUpdateStatusPage(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		page, ok := loadOwnedPage(w, r, db)
		if !ok {
			return
		}

		var req statusPageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		page.Slug = req.Slug
		page.Title = req.Title
		page.Description = req.Description
		page.Published = req.Published

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(page).Error; err != nil {
				return err
			}
			if req.MonitorIDs == nil {
				return nil
			}
			if err := tx.Where("status_page_id = ?", page.ID).
				Delete(&models.StatusPageMonitor{}).Error; err != nil {
				return err
			}
			return attachPageMonitors(tx, page, req.MonitorIDs, user.ID)
		})
		if err != nil {
			http.Error(w, "Failed to update status page", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// HandleDeleteStatusPage deletes a status page.
func HandleDeleteStatusPage(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := loadOwnedPage(w, r, db)
		if !ok {
			return
		}
		if err := db.Delete(page).Error; err != nil {
			http.Error(w, "Failed to delete status page", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetPublicStatusPage serves a published status page by slug, without
// authentication.
func HandleGetPublicStatusPage(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		var page models.StatusPage
		err := db.Where("slug = ? AND published = ?", slug, true).First(&page).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Status page not found", http.StatusNotFound)
			} else {
				http.Error(w, "Failed to fetch status page", http.StatusInternalServerError)
			}
			return
		}

		var monitors []publicMonitor
		err = db.Model(&models.Monitor{}).
			Select("monitors.id, monitors.name, monitors.status").
			Joins("INNER JOIN status_page_monitors spm ON spm.monitor_id = monitors.id").
			Where("spm.status_page_id = ?", page.ID).
			Order("spm.display_order").
			Scan(&monitors).Error
		if err != nil {
			http.Error(w, "Failed to fetch monitors", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"slug":        page.Slug,
			"title":       page.Title,
			"description": page.Description,
			"monitors":    monitors,
		})
	}
}

func attachPageMonitors(tx *gorm.DB, page *models.StatusPage, monitorIDs []int, userID int) error {
	for order, id := range monitorIDs {
		var mon models.Monitor
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&mon).Error; err != nil {
			return err
		}
		link := models.StatusPageMonitor{
			StatusPageID: page.ID,
			MonitorID:    mon.ID,
			DisplayOrder: order,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func loadOwnedPage(w http.ResponseWriter, r *http.Request, db *gorm.DB) (*models.StatusPage, bool) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	var page models.StatusPage
	err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Status page not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch status page", http.StatusInternalServerError)
		}
		return nil, false
	}
	return &page, true
}
