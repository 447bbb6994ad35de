package httpServer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helvethink/throttle/internal/collectors"
	"github.com/helvethink/throttle/pkg/config"
	"github.com/helvethink/throttle/pkg/throttle"
)

func newTestHandler(t *testing.T, cfg config.Server) (http.Handler, *throttle.Throttler[int]) {
	th, err := throttle.New(func(context.Context, ...any) (int, error) { return 1, nil },
		time.Second, throttle.WithClock(clockwork.NewFakeClock()))
	require.NoError(t, err)
	t.Cleanup(th.Stop)

	e := collectors.NewExporter(map[string]collectors.StatsSource{"progress": th})
	return NewHandler(cfg, e, NewHealthHandler(th)), th
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestRootPage(t *testing.T) {
	h, _ := newTestHandler(t, config.New().Server)

	code, body := get(t, h, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<a href='/metrics'>")

	code, _ = get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, th := newTestHandler(t, config.New().Server)
	_, err := th.Invoke(context.Background())
	require.NoError(t, err)

	code, body := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `throttle_calls_total{policy="leading-trailing",throttler="progress"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := config.New().Server
	cfg.Metrics.Enabled = false
	h, _ := newTestHandler(t, cfg)

	code, _ := get(t, h, "/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPprof(t *testing.T) {
	cfg := config.New().Server
	h, _ := newTestHandler(t, cfg)
	code, _ := get(t, h, "/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, code)

	cfg.EnablePprof = true
	h, _ = newTestHandler(t, cfg)
	code, _ = get(t, h, "/debug/pprof/")
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthReadiness(t *testing.T) {
	h, th := newTestHandler(t, config.New().Server)

	code, _ := get(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, code)
	code, _ = get(t, h, "/health/ready")
	assert.Equal(t, http.StatusOK, code)

	th.Stop()
	code, _ = get(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = get(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, code)
}

func TestNewServer(t *testing.T) {
	cfg := config.New().Server
	cfg.ListenAddress = "127.0.0.1:0"
	_, th := newTestHandler(t, cfg)

	s := NewServer(cfg, collectors.NewExporter(nil), NewHealthHandler(th))
	assert.Equal(t, "127.0.0.1:0", s.Addr)
	assert.NotNil(t, s.Handler)
}
