package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

// HTTPProber implements the http and keyword monitor types. The keyword
// variant additionally requires the response body to contain the monitor's
// configured keyword; a 2xx response without it is classified down.
type HTTPProber struct {
	client  *http.Client
	name    string
	keyword bool
}

// NewHTTPProber creates the http prober. A nil client gets a stock client;
// per-monitor timeouts are applied via context, not the client.
func NewHTTPProber(client *http.Client) *HTTPProber {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPProber{client: client, name: models.MonitorTypeHTTP}
}

// NewKeywordProber creates the keyword prober.
func NewKeywordProber(client *http.Client) *HTTPProber {
	p := NewHTTPProber(client)
	p.name = models.MonitorTypeKeyword
	p.keyword = true
	return p
}

// Name returns the monitor type name.
func (p *HTTPProber) Name() string {
	return p.name
}

// Validate checks the monitor configuration.
func (p *HTTPProber) Validate(m *models.Monitor) error {
	if m.URL == "" {
		return fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(m.URL, "http://") && !strings.HasPrefix(m.URL, "https://") {
		return fmt.Errorf("url must start with http:// or https://")
	}
	if p.keyword && m.Keyword == "" {
		return fmt.Errorf("keyword is required")
	}
	return nil
}

// Probe issues a GET against the monitor's URL and classifies the response.
// Success is a status in the 200-299 range; for the keyword type the body
// must also contain the keyword.
func (p *HTTPProber) Probe(ctx context.Context, m *models.Monitor) Outcome {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds(m))*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return Outcome{Message: fmt.Sprintf("invalid request: %v", err)}
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		return Outcome{Latency: latency, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	out := Outcome{Latency: latency, Code: resp.StatusCode}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return out
	}

	if p.keyword {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			out.Message = fmt.Sprintf("failed to read response body: %v", err)
			return out
		}
		// Latency covers the full exchange including the body read.
		out.Latency = int(time.Since(start).Milliseconds())
		if !strings.Contains(string(body), m.Keyword) {
			out.Message = fmt.Sprintf("keyword %q not found", m.Keyword)
			return out
		}
	}

	out.Up = true
	out.Message = fmt.Sprintf("HTTP %d - %dms", resp.StatusCode, out.Latency)
	return out
}
