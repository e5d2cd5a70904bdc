package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/probe"
	"github.com/pulseboard/pulseboard/internal/scheduler"
	"github.com/pulseboard/pulseboard/internal/uptime"
	"github.com/pulseboard/pulseboard/internal/websocket"
)

// NewRouter builds the HTTP API.
func NewRouter(
	cfg *config.Config,
	db *gorm.DB,
	hub *websocket.Hub,
	sched *scheduler.Scheduler,
	dispatcher *notify.Dispatcher,
	registry *probe.Registry,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(SecurityHeadersMiddleware(cfg.Environment == "production"))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	calc := uptime.NewCalculator(db)
	authLimiter := NewRateLimiter(rate.Limit(1), 5)
	triggerLimiter := NewRateLimiter(rate.Limit(1), 2)

	r.Route("/api", func(r chi.Router) {
		// Auth routes
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(authLimiter))
			r.Post("/auth/login", HandleLogin(db, cfg, log))
			r.Post("/auth/setup", HandleSetup(db, cfg, log))
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(db, cfg.JWTSecret))

			r.Get("/user/me", HandleGetCurrentUser())

			// Monitors
			r.Get("/monitors", HandleGetMonitors(db))
			r.Post("/monitors", HandleCreateMonitor(db, registry))
			r.Get("/monitors/{id}", HandleGetMonitor(db))
			r.Put("/monitors/{id}", HandleUpdateMonitor(db, registry))
			r.Delete("/monitors/{id}", HandleDeleteMonitor(db))
			r.Post("/monitors/{id}/pause", HandlePauseMonitor(db))
			r.Post("/monitors/{id}/resume", HandleResumeMonitor(db))
			r.Get("/monitors/{id}/heartbeats", HandleGetHeartbeats(db))
			r.Get("/monitors/{id}/uptime", HandleGetMonitorUptime(db, calc))
			r.Post("/monitors/{id}/channels", HandleAttachChannel(db))
			r.Delete("/monitors/{id}/channels/{channelId}", HandleDetachChannel(db))

			// Incidents
			r.Get("/incidents", HandleGetIncidents(db))
			r.Post("/incidents/{id}/acknowledge", HandleAcknowledgeIncident(db))

			// Notification channels
			r.Get("/channels", HandleGetChannels(db))
			r.Post("/channels", HandleCreateChannel(db))
			r.Put("/channels/{id}", HandleUpdateChannel(db))
			r.Delete("/channels/{id}", HandleDeleteChannel(db))
			r.Post("/channels/{id}/test", HandleTestChannel(db, dispatcher))

			// Maintenance windows
			r.Get("/maintenance-windows", HandleGetMaintenanceWindows(db))
			r.Post("/maintenance-windows", HandleCreateMaintenanceWindow(db))
			r.Put("/maintenance-windows/{id}", HandleUpdateMaintenanceWindow(db))
			r.Delete("/maintenance-windows/{id}", HandleDeleteMaintenanceWindow(db))

			// Status pages (management)
			r.Get("/status-pages", HandleGetStatusPages(db))
			r.Post("/status-pages", HandleCreateStatusPage(db))
			r.Put("/status-pages/{id}", HandleUpdateStatusPage(db))
			r.Delete("/status-pages/{id}", HandleDeleteStatusPage(db))

			// External check trigger (e.g. a cron hitting the API)
			r.Group(func(r chi.Router) {
				r.Use(RateLimitMiddleware(triggerLimiter))
				r.Post("/checks/run", HandleRunChecks(sched, log))
			})
		})
	})

	// Public status page endpoint (no auth required)
	r.Get("/status/{slug}", HandleGetPublicStatusPage(db))

	// WebSocket live feed
	r.Get("/ws", hub.HandleWebSocket)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
