// file: internal/server/server_test.go
// version: 1.1.0
// guid: 8c0d2e4f-6a8b-4c0d-8e2f-4a6b8c0d2e4b

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vgrab/video-downloader-bot/internal/metrics"
	"github.com/vgrab/video-downloader-bot/internal/storage"
)

type stubStats struct {
	active int
	users  int
}

func (s *stubStats) ActiveTotal() int { return s.active }
func (s *stubStats) Users() int       { return s.users }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	return New(&stubStats{active: 2, users: 1}, store, 0)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status        string `json:"status"`
		UptimeSeconds int64  `json:"uptime_seconds"`
		Bot           struct {
			ActiveDownloads int `json:"active_downloads"`
			ActiveUsers     int `json:"active_users"`
			StoredFiles     int `json:"stored_files"`
		} `json:"bot"`
		System struct {
			CPUPercent    float64         `json:"cpu_percent"`
			MemoryPercent float64         `json:"memory_percent"`
			Disk          json.RawMessage `json:"disk"`
		} `json:"system"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Bot.ActiveDownloads)
	assert.Equal(t, 1, body.Bot.ActiveUsers)
	assert.Equal(t, 0, body.Bot.StoredFiles)
	assert.GreaterOrEqual(t, body.System.MemoryPercent, 0.0)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Register()
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRouteIs404(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
