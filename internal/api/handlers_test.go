package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediapress/internal/config"
	"mediapress/internal/hub"
	"mediapress/internal/jobs"
	"mediapress/internal/metrics"
	"mediapress/internal/models"
	"mediapress/internal/pipeline"
	"mediapress/internal/storage"
)

// brokenLauncher fails every spawn, driving any submitted job straight to
// its error state.
type brokenLauncher struct{}

func (brokenLauncher) Start(context.Context, string, ...string) (pipeline.Process, error) {
	return nil, fmt.Errorf("executable file not found in $PATH")
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := &config.Config{
		PublicBaseURL:     "http://localhost:8080",
		DownloadDir:       t.TempDir(),
		TempDir:           t.TempDir(),
		MaxConcurrentJobs: 2,
		QueueWait:         time.Second,
		FetcherBin:        "fetcher",
		TranscoderBin:     "transcoder",
		OutputFormat:      "mp4",
	}
	reg := jobs.NewRegistry()
	h := hub.New(reg)
	met := metrics.New(prometheus.NewRegistry())
	pub := storage.NewFilesystemPublisher(cfg.DownloadDir, cfg.PublicBaseURL)
	orch := pipeline.NewWithLauncher(cfg, reg, h, pub, met, brokenLauncher{})
	return NewHandler(cfg, reg, h, orch)
}

func TestCreateJobValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
	}{
		{"missing url", http.MethodPost, `{}`, http.StatusBadRequest},
		{"blank url", http.MethodPost, `{"url": "  "}`, http.StatusBadRequest},
		{"invalid json", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/job", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.CreateJob(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestCreateJobReturnsAddresses(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/job", strings.NewReader(`{"url": "https://example.com/v"}`))
	rec := httptest.NewRecorder()
	h.CreateJob(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["job_id"])
	assert.Equal(t, string(models.StatusQueued), resp["status"])
	assert.Equal(t, "/api/events/"+resp["job_id"], resp["stream_url"])
	assert.Equal(t, "/api/download/"+resp["job_id"], resp["download_url"])
}

func TestSubscribeUnknownJob(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/events/no-such-id", nil)
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribeStreamsUntilTerminal(t *testing.T) {
	h := newTestHandler(t)
	server := httptest.NewServer(NewRouter(h))
	defer server.Close()

	job := h.Orchestrator.Submit("https://example.com/v")

	resp, err := http.Get(server.URL + "/api/events/" + job.ID)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The stream ends server-side once the job is terminal. Depending on
	// timing the terminal state arrives as the attach snapshot or as a
	// live error event; either way the last snapshot must carry it.
	var events int
	var last models.Snapshot
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &last))
		events++
	}
	require.Greater(t, events, 0, "stream carried no events")
	assert.Equal(t, models.StatusError, last.Status)
	assert.NotEmpty(t, last.Error)
}

func TestDownloadUnknownAndNotReady(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/download/no-such-id", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	job := h.Registry.Create("https://example.com/v")
	req = httptest.NewRequest(http.MethodGet, "/api/download/"+job.ID, nil)
	rec = httptest.NewRecorder()
	h.Download(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
