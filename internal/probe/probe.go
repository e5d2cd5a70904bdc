package probe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/models"
)

// UserAgent identifies probe traffic to the checked targets.
const UserAgent = "Pulseboard/1.0 (+https://github.com/pulseboard/pulseboard)"

// Outcome is the classified result of one probe. Network failures are not
// errors: they come back as Up=false with a reason in Message, so a probe
// always yields an outcome.
type Outcome struct {
	Up      bool
	Latency int    // milliseconds
	Code    int    // HTTP response code, 0 when absent
	Message string
}

// Prober performs one probe for one monitor type.
type Prober interface {
	// Name returns the monitor type this prober serves (e.g. "http").
	Name() string

	// Probe runs the check. The context carries the per-monitor timeout.
	Probe(ctx context.Context, m *models.Monitor) Outcome

	// Validate checks the monitor configuration at creation time.
	Validate(m *models.Monitor) error
}

// Registry dispatches probes by monitor type.
type Registry struct {
	probers map[string]Prober
}

// NewRegistry creates a registry over the given probers.
func NewRegistry(probers ...Prober) *Registry {
	r := &Registry{probers: make(map[string]Prober, len(probers))}
	for _, p := range probers {
		r.probers[p.Name()] = p
	}
	return r
}

// Defaults returns a registry with all built-in probers. The HTTP client is
// shared by the http and keyword probers; pass nil for the stock client.
func Defaults(client *http.Client) *Registry {
	return NewRegistry(
		NewHTTPProber(client),
		NewKeywordProber(client),
		NewPortProber(),
		NewPingProber(),
	)
}

// Lookup returns the prober for a monitor type.
func (r *Registry) Lookup(name string) (Prober, bool) {
	p, ok := r.probers[name]
	return p, ok
}

// Probe dispatches to the prober for the monitor's type. An unknown type is
// classified down rather than surfaced as an error, so the check pipeline
// always completes.
func (r *Registry) Probe(ctx context.Context, m *models.Monitor) Outcome {
	p, ok := r.probers[m.Type]
	if !ok {
		return Outcome{Up: false, Message: fmt.Sprintf("unknown monitor type %q", m.Type)}
	}
	return p.Probe(ctx, m)
}

// Validate validates a monitor against its type's prober.
func (r *Registry) Validate(m *models.Monitor) error {
	p, ok := r.probers[m.Type]
	if !ok {
		return fmt.Errorf("unknown monitor type %q", m.Type)
	}
	return p.Validate(m)
}

// timeoutSeconds normalizes the configured timeout.
func timeoutSeconds(m *models.Monitor) int {
	if m.Timeout <= 0 {
		return 30
	}
	return m.Timeout
}
