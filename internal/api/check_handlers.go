package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard/internal/scheduler"
)

// HandleRunChecks is the external trigger endpoint: it runs one scheduler
// cycle synchronously and returns the cycle summary. A scheduler-level
// fetch failure is the one fatal case and comes back as a 500 error
// payload; individual check failures are already folded into the results.
func HandleRunChecks(sched *scheduler.Scheduler, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The cycle runs detached from the request context: a caller
		// disconnecting mid-cycle must not cancel in-flight probes, which
		// would classify healthy monitors down. Only the per-monitor
		// timeout cancels a probe.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		summary, err := sched.RunCycle(ctx)
		if err != nil {
			log.Error("triggered check cycle failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
