package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard/internal/checker"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/scheduler"
)

type triggerMonitors struct {
	monitors []models.Monitor
	err      error
}

func (s *triggerMonitors) ListCheckable(ctx context.Context) ([]models.Monitor, error) {
	return s.monitors, s.err
}

func (s *triggerMonitors) UpdateStatus(ctx context.Context, id int, status string, checkedAt time.Time) error {
	return nil
}

type triggerMaintenance struct{}

func (triggerMaintenance) ActiveMonitorIDs(ctx context.Context, now time.Time) ([]int, error) {
	return nil, nil
}

type staticRunner struct{}

func (staticRunner) Check(ctx context.Context, m models.Monitor) checker.Result {
	return checker.Result{MonitorID: m.ID, URL: m.URL, Status: models.MonitorStatusUp, Latency: 10, Code: 200}
}

func TestHandleRunChecks(t *testing.T) {
	monitors := &triggerMonitors{monitors: []models.Monitor{
		{ID: 1, URL: "https://a.example.com"},
		{ID: 2, URL: "https://b.example.com"},
	}}
	sched := scheduler.New(monitors, triggerMaintenance{}, staticRunner{}, zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/checks/run", nil)
	HandleRunChecks(sched, zap.NewNop())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary scheduler.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.CheckedCount)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "up", summary.Results[0].Status)
}

type ctxObservingRunner struct {
	ctxErr error
}

func (r *ctxObservingRunner) Check(ctx context.Context, m models.Monitor) checker.Result {
	r.ctxErr = ctx.Err()
	return checker.Result{MonitorID: m.ID, Status: models.MonitorStatusUp}
}

func TestHandleRunChecksDetachedFromRequestContext(t *testing.T) {
	monitors := &triggerMonitors{monitors: []models.Monitor{{ID: 1}}}
	runner := &ctxObservingRunner{}
	sched := scheduler.New(monitors, triggerMaintenance{}, runner, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/checks/run", nil).WithContext(ctx)

	rec := httptest.NewRecorder()
	HandleRunChecks(sched, zap.NewNop())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, runner.ctxErr, "a disconnected caller must not cancel in-flight checks")
}

func TestHandleRunChecksFetchFailure(t *testing.T) {
	monitors := &triggerMonitors{err: errors.New("connection reset")}
	sched := scheduler.New(monitors, triggerMaintenance{}, staticRunner{}, zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/checks/run", nil)
	HandleRunChecks(sched, zap.NewNop())(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "fetch monitors")
}
