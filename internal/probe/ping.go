package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ping/ping"

	"github.com/pulseboard/pulseboard/internal/models"
)

// PingProber performs ICMP echo checks in unprivileged (UDP) mode.
type PingProber struct {
	count int
}

// NewPingProber creates the ping prober.
func NewPingProber() *PingProber {
	return &PingProber{count: 3}
}

// Name returns the monitor type name.
func (p *PingProber) Name() string {
	return models.MonitorTypePing
}

// Validate checks the monitor configuration.
func (p *PingProber) Validate(m *models.Monitor) error {
	if m.URL == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// Probe pings the monitor's host. Total loss or a resolution failure is
// classified down; latency is the average round-trip time.
func (p *PingProber) Probe(ctx context.Context, m *models.Monitor) Outcome {
	pinger, err := ping.NewPinger(m.URL)
	if err != nil {
		return Outcome{Message: fmt.Sprintf("failed to create pinger: %v", err)}
	}
	pinger.Count = p.count
	pinger.Timeout = time.Duration(timeoutSeconds(m)) * time.Second
	pinger.SetPrivileged(false)

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case <-ctx.Done():
		pinger.Stop()
		return Outcome{Message: "ping cancelled"}
	case err := <-done:
		if err != nil {
			return Outcome{Message: fmt.Sprintf("ping failed: %v", err)}
		}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return Outcome{Message: "no packets received (100% packet loss)"}
	}

	latency := int(stats.AvgRtt.Milliseconds())
	return Outcome{
		Up:      true,
		Latency: latency,
		Message: fmt.Sprintf("ping OK - %dms avg (loss: %.1f%%)", latency, stats.PacketLoss),
	}
}
