package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard/internal/models"
)

type stubChannels struct {
	channels []models.NotificationChannel
	err      error
}

func (s *stubChannels) ForMonitor(ctx context.Context, monitorID int) ([]models.NotificationChannel, error) {
	return s.channels, s.err
}

type fakeMail struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (f *fakeMail) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.sent = append(f.sent, sentMail{to, subject, htmlBody})
	f.mu.Unlock()
	return nil
}

func testEvent() Event {
	return Event{
		Type:        EventDown,
		MonitorID:   7,
		MonitorName: "API",
		MonitorURL:  "https://api.example.com",
		Code:        500,
		Timestamp:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	w := &Webhook{URL: srv.URL, Client: srv.Client()}
	require.NoError(t, w.Notify(context.Background(), testEvent()))

	assert.Equal(t, "DOWN", got.Event)
	assert.Equal(t, 7, got.Monitor.ID)
	assert.Equal(t, "API", got.Monitor.Name)
	assert.Equal(t, "https://api.example.com", got.Monitor.URL)
	assert.Equal(t, "2024-06-01T12:00:00Z", got.Timestamp)
}

func TestWebhookNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := &Webhook{URL: srv.URL, Client: srv.Client()}
	err := w.Notify(context.Background(), testEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestEmailNotify(t *testing.T) {
	mail := &fakeMail{}
	e := &Email{To: "ops@example.com", Sender: mail, AppURL: "https://status.example.com", Log: zap.NewNop()}

	require.NoError(t, e.Notify(context.Background(), testEvent()))

	require.Len(t, mail.sent, 1)
	m := mail.sent[0]
	assert.Equal(t, "ops@example.com", m.to)
	assert.Equal(t, "[Pulseboard] API is DOWN", m.subject)
	assert.Contains(t, m.body, "https://status.example.com/monitors/7")
	assert.Contains(t, m.body, "500")
}

func TestEmailWithoutSenderIsNoop(t *testing.T) {
	e := &Email{To: "ops@example.com", Log: zap.NewNop()}

	assert.NoError(t, e.Notify(context.Background(), testEvent()))
}

func TestDispatchFansOutToAllChannels(t *testing.T) {
	var mu sync.Mutex
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
	}))
	defer srv.Close()

	channels := &stubChannels{channels: []models.NotificationChannel{
		{ID: 1, Type: models.ChannelTypeWebhook, Target: srv.URL},
		{ID: 2, Type: models.ChannelTypeWebhook, Target: srv.URL},
		{ID: 3, Type: models.ChannelTypeEmail, Target: "ops@example.com"},
	}}
	mail := &fakeMail{}
	d := NewDispatcher(channels, srv.Client(), mail, "https://status.example.com", zap.NewNop())

	d.Dispatch(context.Background(), 7, testEvent())

	assert.Equal(t, 2, hits)
	assert.Len(t, mail.sent, 1)
}

func TestDispatchIsolatesChannelFailures(t *testing.T) {
	var mu sync.Mutex
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
	}))
	defer srv.Close()

	channels := &stubChannels{channels: []models.NotificationChannel{
		{ID: 1, Type: models.ChannelTypeWebhook, Target: "http://127.0.0.1:1"},
		{ID: 2, Type: models.ChannelTypeWebhook, Target: srv.URL},
	}}
	d := NewDispatcher(channels, srv.Client(), nil, "", zap.NewNop())

	d.Dispatch(context.Background(), 7, testEvent())

	assert.Equal(t, 1, hits, "the healthy channel is delivered despite the broken one")
}

func TestDispatchChannelLookupFailureIsSwallowed(t *testing.T) {
	channels := &stubChannels{err: errors.New("db down")}
	d := NewDispatcher(channels, nil, nil, "", zap.NewNop())

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), 7, testEvent())
	})
}

func TestDispatchNoChannelsIsNoop(t *testing.T) {
	d := NewDispatcher(&stubChannels{}, nil, nil, "", zap.NewNop())
	d.Dispatch(context.Background(), 7, testEvent())
}
