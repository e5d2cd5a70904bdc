package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard/internal/api"
	"github.com/pulseboard/pulseboard/internal/checker"
	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/database"
	"github.com/pulseboard/pulseboard/internal/jobs"
	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/probe"
	"github.com/pulseboard/pulseboard/internal/scheduler"
	"github.com/pulseboard/pulseboard/internal/store"
	"github.com/pulseboard/pulseboard/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get database connection", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	st := store.NewGormStore(db)

	hub := websocket.NewHub(cfg.JWTSecret, cfg.CORSOrigins, logger.Named("websocket"))
	go hub.Run()

	var mail notify.MailSender
	if cfg.SMTP.Configured() {
		mail = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("no SMTP configuration, email notifications are disabled")
	}
	dispatcher := notify.NewDispatcher(st, nil, mail, cfg.AppURL, logger.Named("notify"))

	registry := probe.Defaults(nil)
	chk := checker.New(st, st, st, registry, dispatcher, hub, logger.Named("checker"))
	sched := scheduler.New(st, st, chk, logger.Named("scheduler"))

	runner := jobs.NewRunner(db, sched, cfg.CheckInterval, cfg.HeartbeatRetentionDays, logger.Named("jobs"))
	if err := runner.Start(); err != nil {
		logger.Fatal("failed to start background jobs", zap.Error(err))
	}
	defer runner.Stop()

	router := api.NewRouter(cfg, db, hub, sched, dispatcher, registry, logger.Named("api"))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // the trigger endpoint runs a full cycle
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
