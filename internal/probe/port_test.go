package probe

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/models"
)

func TestPortProbeOpen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	m := &models.Monitor{Type: models.MonitorTypePort, URL: "127.0.0.1", Port: port, Timeout: 2}

	out := NewPortProber().Probe(context.Background(), m)

	assert.True(t, out.Up)
	assert.GreaterOrEqual(t, out.Latency, 0)
}

func TestPortProbeClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	m := &models.Monitor{Type: models.MonitorTypePort, URL: "127.0.0.1", Port: port, Timeout: 2}

	out := NewPortProber().Probe(context.Background(), m)

	assert.False(t, out.Up)
	assert.Contains(t, out.Message, "connection failed")
}

func TestPortValidate(t *testing.T) {
	p := NewPortProber()

	assert.NoError(t, p.Validate(&models.Monitor{URL: "example.com", Port: 443}))
	assert.Error(t, p.Validate(&models.Monitor{URL: "", Port: 443}))
	assert.Error(t, p.Validate(&models.Monitor{URL: "example.com", Port: 0}))
	assert.Error(t, p.Validate(&models.Monitor{URL: "example.com", Port: 70000}))
}
