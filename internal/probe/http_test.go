package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/models"
)

func httpMonitor(url string) *models.Monitor {
	return &models.Monitor{ID: 1, Type: models.MonitorTypeHTTP, URL: url, Timeout: 5}
}

func TestHTTPProbeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := NewHTTPProber(nil).Probe(context.Background(), httpMonitor(srv.URL))

	assert.True(t, out.Up)
	assert.Equal(t, 200, out.Code)
	assert.GreaterOrEqual(t, out.Latency, 0)
}

func TestHTTPProbeAccepts2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out := NewHTTPProber(nil).Probe(context.Background(), httpMonitor(srv.URL))

	assert.True(t, out.Up)
	assert.Equal(t, 204, out.Code)
}

func TestHTTPProbeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := NewHTTPProber(nil).Probe(context.Background(), httpMonitor(srv.URL))

	assert.False(t, out.Up)
	assert.Equal(t, 500, out.Code)
	assert.Contains(t, out.Message, "HTTP 500")
}

func TestHTTPProbeRedirectStatusIsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	out := NewHTTPProber(nil).Probe(context.Background(), httpMonitor(srv.URL))

	assert.False(t, out.Up)
	assert.Equal(t, 304, out.Code)
}

func TestHTTPProbeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	out := NewHTTPProber(nil).Probe(context.Background(), httpMonitor(srv.URL))

	assert.False(t, out.Up)
	assert.Equal(t, 0, out.Code, "no response means no code")
	assert.Contains(t, out.Message, "request failed")
}

func TestHTTPProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(10 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	m := httpMonitor(srv.URL)
	m.Timeout = 1

	start := time.Now()
	out := NewHTTPProber(nil).Probe(context.Background(), m)
	elapsed := time.Since(start)

	assert.False(t, out.Up)
	assert.Equal(t, 0, out.Code, "an aborted request has no response code")
	assert.Contains(t, out.Message, "request failed")
	assert.Less(t, elapsed, 3*time.Second, "the probe must give up at the configured timeout")
}

func TestHTTPProbeSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	NewHTTPProber(nil).Probe(context.Background(), httpMonitor(srv.URL))

	assert.Equal(t, UserAgent, gotUA)
}

func TestKeywordProbeFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>All systems operational</body></html>`))
	}))
	defer srv.Close()

	m := httpMonitor(srv.URL)
	m.Type = models.MonitorTypeKeyword
	m.Keyword = "operational"

	out := NewKeywordProber(nil).Probe(context.Background(), m)

	assert.True(t, out.Up)
	assert.Equal(t, 200, out.Code)
}

func TestKeywordProbeMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Scheduled maintenance</body></html>`))
	}))
	defer srv.Close()

	m := httpMonitor(srv.URL)
	m.Type = models.MonitorTypeKeyword
	m.Keyword = "operational"

	out := NewKeywordProber(nil).Probe(context.Background(), m)

	assert.False(t, out.Up, "a 2xx without the keyword is down")
	assert.Equal(t, 200, out.Code)
	assert.Contains(t, out.Message, "keyword")
}

func TestKeywordProbeSkipsBodyOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`operational`))
	}))
	defer srv.Close()

	m := httpMonitor(srv.URL)
	m.Type = models.MonitorTypeKeyword
	m.Keyword = "operational"

	out := NewKeywordProber(nil).Probe(context.Background(), m)

	assert.False(t, out.Up, "status classification wins over body content")
	assert.Equal(t, 503, out.Code)
}

func TestHTTPValidate(t *testing.T) {
	p := NewHTTPProber(nil)

	assert.NoError(t, p.Validate(&models.Monitor{URL: "https://example.com"}))
	assert.Error(t, p.Validate(&models.Monitor{URL: ""}))
	assert.Error(t, p.Validate(&models.Monitor{URL: "ftp://example.com"}))

	kw := NewKeywordProber(nil)
	assert.Error(t, kw.Validate(&models.Monitor{URL: "https://example.com"}))
	require.NoError(t, kw.Validate(&models.Monitor{URL: "https://example.com", Keyword: "ok"}))
}

func TestRegistryDispatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := Defaults(nil)

	out := r.Probe(context.Background(), httpMonitor(srv.URL))
	assert.True(t, out.Up)

	unknown := &models.Monitor{Type: "carrier-pigeon", URL: srv.URL}
	out = r.Probe(context.Background(), unknown)
	assert.False(t, out.Up)
	assert.Contains(t, out.Message, "carrier-pigeon")

	assert.Error(t, r.Validate(unknown))
}
