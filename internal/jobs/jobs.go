package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/scheduler"
)

// Runner owns the background jobs: the periodic check cycle, heartbeat
// retention cleanup, and maintenance-window status promotion. The check
// cycle can also be triggered externally through the API; overlapping cycles
// are safe.
type Runner struct {
	cron          *cron.Cron
	db            *gorm.DB
	sched         *scheduler.Scheduler
	log           *zap.Logger
	interval      int // seconds, 0 disables the internal check timer
	retentionDays int
}

// NewRunner creates a Runner.
func NewRunner(db *gorm.DB, sched *scheduler.Scheduler, interval, retentionDays int, log *zap.Logger) *Runner {
	return &Runner{
		cron:          cron.New(),
		db:            db,
		sched:         sched,
		log:           log,
		interval:      interval,
		retentionDays: retentionDays,
	}
}

// Start registers and starts the jobs.
func (r *Runner) Start() error {
	if r.interval > 0 {
		spec := fmt.Sprintf("@every %ds", r.interval)
		if _, err := r.cron.AddFunc(spec, r.runCycle); err != nil {
			return fmt.Errorf("schedule check cycle: %w", err)
		}
	}

	if _, err := r.cron.AddFunc("@every 1m", r.promoteMaintenanceWindows); err != nil {
		return fmt.Errorf("schedule maintenance promotion: %w", err)
	}

	// Nightly, off the busy minutes.
	if _, err := r.cron.AddFunc("14 3 * * *", r.cleanupOldHeartbeats); err != nil {
		return fmt.Errorf("schedule heartbeat cleanup: %w", err)
	}

	r.cron.Start()
	r.log.Info("background jobs started", zap.Int("check_interval_s", r.interval))
	return nil
}

// Stop stops the jobs, waiting for running ones to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info("background jobs stopped")
}

func (r *Runner) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := r.sched.RunCycle(ctx); err != nil {
		r.log.Error("check cycle failed", zap.Error(err))
	}
}

// cleanupOldHeartbeats enforces heartbeat retention.
func (r *Runner) cleanupOldHeartbeats() {
	result := r.db.Exec(
		`DELETE FROM heartbeats WHERE created_at < NOW() - (? * INTERVAL '1 day')`,
		r.retentionDays,
	)
	if result.Error != nil {
		r.log.Error("failed to clean up old heartbeats", zap.Error(result.Error))
		return
	}
	r.log.Info("cleaned up old heartbeats", zap.Int64("deleted", result.RowsAffected))
}

// promoteMaintenanceWindows moves windows through their lifecycle by wall
// clock: scheduled windows whose range has begun become active, and windows
// past their end become completed.
func (r *Runner) promoteMaintenanceWindows() {
	now := time.Now()

	res := r.db.Model(&models.MaintenanceWindow{}).
		Where("status = ? AND start_time <= ? AND end_time >= ?",
			models.MaintenanceStatusScheduled, now, now).
		Update("status", models.MaintenanceStatusActive)
	if res.Error != nil {
		r.log.Error("failed to activate maintenance windows", zap.Error(res.Error))
	}

	res = r.db.Model(&models.MaintenanceWindow{}).
		Where("status IN ? AND end_time < ?",
			[]string{models.MaintenanceStatusScheduled, models.MaintenanceStatusActive}, now).
		Update("status", models.MaintenanceStatusCompleted)
	if res.Error != nil {
		r.log.Error("failed to complete maintenance windows", zap.Error(res.Error))
	}
}
