package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

// PortProber checks whether a TCP port accepts connections.
type PortProber struct{}

// NewPortProber creates the port prober.
func NewPortProber() *PortProber {
	return &PortProber{}
}

// Name returns the monitor type name.
func (p *PortProber) Name() string {
	return models.MonitorTypePort
}

// Validate checks the monitor configuration.
func (p *PortProber) Validate(m *models.Monitor) error {
	if m.URL == "" {
		return fmt.Errorf("host is required")
	}
	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// Probe dials the monitor's host:port over TCP and measures connect time.
func (p *PortProber) Probe(ctx context.Context, m *models.Monitor) Outcome {
	address := net.JoinHostPort(m.URL, strconv.Itoa(m.Port))
	dialer := &net.Dialer{Timeout: time.Duration(timeoutSeconds(m)) * time.Second}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		return Outcome{Latency: latency, Message: fmt.Sprintf("connection failed: %v", err)}
	}
	defer conn.Close()

	return Outcome{
		Up:      true,
		Latency: latency,
		Message: fmt.Sprintf("port %d is open - %dms", m.Port, latency),
	}
}
