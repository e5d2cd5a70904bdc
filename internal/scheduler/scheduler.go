package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard/internal/checker"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/store"
)

// CheckRunner runs one check. Implemented by checker.Checker.
type CheckRunner interface {
	Check(ctx context.Context, m models.Monitor) checker.Result
}

// Summary is the outcome of one scheduler cycle, returned to the trigger
// caller.
type Summary struct {
	CheckedCount int              `json:"checked_count"`
	Results      []checker.Result `json:"results"`
}

// Scheduler determines the set of monitors due this cycle and fans their
// checks out concurrently. It holds no state between cycles; overlapping
// invocations are safe because idempotence lives in the checker and store.
type Scheduler struct {
	monitors    store.Monitors
	maintenance store.Maintenance
	runner      CheckRunner
	log         *zap.Logger

	// Now is the clock used to evaluate maintenance windows. Overridable
	// in tests.
	Now func() time.Time
}

// New creates a Scheduler.
func New(monitors store.Monitors, maintenance store.Maintenance, runner CheckRunner, log *zap.Logger) *Scheduler {
	return &Scheduler{
		monitors:    monitors,
		maintenance: maintenance,
		runner:      runner,
		log:         log,
		Now:         time.Now,
	}
}

// RunCycle checks every non-paused monitor not covered by an active
// maintenance window. Failing to read the monitor or maintenance lists is
// fatal for the whole cycle; a failure inside one monitor's check is
// isolated and never aborts the batch.
func (s *Scheduler) RunCycle(ctx context.Context) (*Summary, error) {
	monitors, err := s.monitors.ListCheckable(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch monitors: %w", err)
	}

	suppressed, err := s.maintenance.ActiveMonitorIDs(ctx, s.Now())
	if err != nil {
		return nil, fmt.Errorf("fetch maintenance windows: %w", err)
	}
	covered := make(map[int]bool, len(suppressed))
	for _, id := range suppressed {
		covered[id] = true
	}

	eligible := monitors[:0:0]
	for _, m := range monitors {
		if covered[m.ID] {
			s.log.Debug("monitor under maintenance, skipping", zap.Int("monitor_id", m.ID))
			continue
		}
		eligible = append(eligible, m)
	}

	results := make([]checker.Result, len(eligible))
	var wg sync.WaitGroup
	for i, m := range eligible {
		wg.Add(1)
		go func(i int, m models.Monitor) {
			defer wg.Done()
			// One misbehaving check must not take down the cycle. The
			// monitor falls back to down in that case.
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("check panicked",
						zap.Int("monitor_id", m.ID), zap.Any("panic", r))
					results[i] = checker.Result{
						MonitorID: m.ID,
						URL:       m.URL,
						Status:    models.MonitorStatusDown,
					}
				}
			}()
			results[i] = s.runner.Check(ctx, m)
		}(i, m)
	}
	wg.Wait()

	s.log.Info("check cycle finished",
		zap.Int("checked", len(results)),
		zap.Int("suppressed", len(monitors)-len(eligible)))

	return &Summary{CheckedCount: len(results), Results: results}, nil
}
