package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/notify"
)

// HandleGetChannels returns the current user's notification channels.
func HandleGetChannels(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var channels []models.NotificationChannel
		err := db.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&channels).Error
		if err != nil {
			http.Error(w, "Failed to fetch channels", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, channels)
	}
}

// HandleCreateChannel creates a notification channel.
func HandleCreateChannel(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var ch models.NotificationChannel
		if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		ch.ID = 0
		ch.UserID = user.ID
		ch.Active = true
		if err := validateChannel(&ch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := db.Create(&ch).Error; err != nil {
			http.Error(w, "Failed to create channel", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, ch)
	}
}

// HandleUpdateChannel updates a notification channel.
func HandleUpdateChannel(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, ok := loadOwnedChannel(w, r, db)
		if !ok {
			return
		}

		var update models.NotificationChannel
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		ch.Name = update.Name
		ch.Type = update.Type
		ch.Target = update.Target
		ch.Active = update.Active
		if err := validateChannel(ch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := db.Save(ch).Error; err != nil {
			http.Error(w, "Failed to update channel", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, ch)
	}
}

// HandleDeleteChannel deletes a notification channel.
func HandleDeleteChannel(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, ok := loadOwnedChannel(w, r, db)
		if !ok {
			return
		}
		if err := db.Delete(ch).Error; err != nil {
			http.Error(w, "Failed to delete channel", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleTestChannel sends a test event to a channel so users can verify
// their configuration.
func HandleTestChannel(db *gorm.DB, dispatcher *notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, ok := loadOwnedChannel(w, r, db)
		if !ok {
			return
		}

		ev := notify.Event{
			Type:        notify.EventUp,
			MonitorName: "Test monitor",
			MonitorURL:  "https://example.com",
			Timestamp:   time.Now(),
		}
		if err := dispatcher.Send(r.Context(), *ch, ev); err != nil {
			http.Error(w, "Test delivery failed: "+err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Test notification sent"})
	}
}

// HandleAttachChannel links a channel to a monitor.
func HandleAttachChannel(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon, ok := loadOwnedMonitor(w, r, db)
		if !ok {
			return
		}

		var req struct {
			ChannelID int `json:"channel_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var ch models.NotificationChannel
		err := db.Where("id = ? AND user_id = ?", req.ChannelID, mon.UserID).First(&ch).Error
		if err != nil {
			http.Error(w, "Channel not found", http.StatusNotFound)
			return
		}

		link := models.MonitorNotification{MonitorID: mon.ID, ChannelID: ch.ID}
		if err := db.Create(&link).Error; err != nil {
			http.Error(w, "Failed to attach channel", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDetachChannel unlinks a channel from a monitor.
func HandleDetachChannel(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon, ok := loadOwnedMonitor(w, r, db)
		if !ok {
			return
		}
		channelID := chi.URLParam(r, "channelId")

		err := db.Where("monitor_id = ? AND notification_channel_id = ?", mon.ID, channelID).
			Delete(&models.MonitorNotification{}).Error
		if err != nil {
			http.Error(w, "Failed to detach channel", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func validateChannel(ch *models.NotificationChannel) error {
	if ch.Name == "" {
		return errors.New("name is required")
	}
	switch ch.Type {
	case models.ChannelTypeWebhook:
		if !strings.HasPrefix(ch.Target, "http://") && !strings.HasPrefix(ch.Target, "https://") {
			return errors.New("webhook target must be an http(s) URL")
		}
	case models.ChannelTypeEmail:
		if !strings.Contains(ch.Target, "@") {
			return errors.New("email target must be an address")
		}
	default:
		return errors.New("type must be webhook or email")
	}
	return nil
}

func loadOwnedChannel(w http.ResponseWriter, r *http.Request, db *gorm.DB) (*models.NotificationChannel, bool) {
	user := currentUser(r)
	id := chi.URLParam(r, "id")

	var ch models.NotificationChannel
	err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Channel not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch channel", http.StatusInternalServerError)
		}
		return nil, false
	}
	return &ch, true
}
