package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/store"
)

// Event types.
const (
	EventUp   = "UP"
	EventDown = "DOWN"
)

// Event describes one monitor state transition.
type Event struct {
	Type        string    // UP or DOWN
	MonitorID   int
	MonitorName string
	MonitorURL  string
	Code        int // HTTP response code from the triggering check, 0 when absent
	Timestamp   time.Time
}

// Notifier delivers one event to one destination.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Dispatcher fans an event out to all channels attached to a monitor. Each
// channel is delivered independently and concurrently; per-channel failures
// are logged and never block the other channels or the calling check.
type Dispatcher struct {
	channels store.Channels
	client   *http.Client
	mail     MailSender // nil when no outbound mail is configured
	appURL   string
	log      *zap.Logger
}

// NewDispatcher creates a Dispatcher. mail may be nil; email channels then
// degrade to a logged no-op.
func NewDispatcher(channels store.Channels, client *http.Client, mail MailSender, appURL string, log *zap.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Dispatcher{
		channels: channels,
		client:   client,
		mail:     mail,
		appURL:   appURL,
		log:      log,
	}
}

// Dispatch sends the event to every channel attached to the monitor. A
// channel lookup failure is logged and swallowed: alerting is best-effort
// and must never abort the check that triggered it.
func (d *Dispatcher) Dispatch(ctx context.Context, monitorID int, ev Event) {
	channels, err := d.channels.ForMonitor(ctx, monitorID)
	if err != nil {
		d.log.Error("failed to load notification channels",
			zap.Int("monitor_id", monitorID), zap.Error(err))
		return
	}
	if len(channels) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch models.NotificationChannel) {
			defer wg.Done()
			if err := d.notifierFor(ch).Notify(ctx, ev); err != nil {
				d.log.Error("notification delivery failed",
					zap.Int("monitor_id", monitorID),
					zap.Int("channel_id", ch.ID),
					zap.String("channel_type", ch.Type),
					zap.Error(err))
			}
		}(ch)
	}
	wg.Wait()
}

// Send delivers a one-off event to a single channel, used by the dashboard's
// channel test endpoint.
func (d *Dispatcher) Send(ctx context.Context, ch models.NotificationChannel, ev Event) error {
	return d.notifierFor(ch).Notify(ctx, ev)
}

func (d *Dispatcher) notifierFor(ch models.NotificationChannel) Notifier {
	switch ch.Type {
	case models.ChannelTypeEmail:
		return &Email{To: ch.Target, Sender: d.mail, AppURL: d.appURL, Log: d.log}
	default:
		return &Webhook{URL: ch.Target, Client: d.client}
	}
}
