package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// webhookPayload is the JSON body POSTed to webhook channels.
type webhookPayload struct {
	Event   string `json:"event"` // UP or DOWN
	Monitor struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"monitor"`
	Timestamp string `json:"timestamp"`
}

// Webhook delivers events as JSON POSTs.
type Webhook struct {
	URL    string
	Client *http.Client
}

// Notify POSTs the event to the webhook URL. Any non-2xx response is an
// error so the dispatcher can log the failed delivery.
func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	var payload webhookPayload
	payload.Event = ev.Type
	payload.Monitor.ID = ev.MonitorID
	payload.Monitor.Name = ev.MonitorName
	payload.Monitor.URL = ev.MonitorURL
	payload.Timestamp = ev.Timestamp.Format(time.RFC3339)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Pulseboard/1.0")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
