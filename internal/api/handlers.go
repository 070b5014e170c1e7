package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"mediapress/internal/config"
	"mediapress/internal/hub"
	"mediapress/internal/jobs"
	"mediapress/internal/models"
	"mediapress/internal/pipeline"
)

type Handler struct {
	Cfg          *config.Config
	Registry     *jobs.Registry
	Hub          *hub.Hub
	Orchestrator *pipeline.Orchestrator
}

func NewHandler(cfg *config.Config, reg *jobs.Registry, h *hub.Hub, orch *pipeline.Orchestrator) *Handler {
	return &Handler{Cfg: cfg, Registry: reg, Hub: h, Orchestrator: orch}
}

type createJobRequest struct {
	URL string `json:"url"`
}

// CreateJob accepts a media URL and returns the job id plus the addresses
// to follow it on. The pipeline starts in the background; this returns
// immediately.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}

	job := h.Orchestrator.Submit(req.URL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"job_id":       job.ID,
		"status":       string(job.Status),
		"stream_url":   fmt.Sprintf("/api/events/%s", job.ID),
		"download_url": fmt.Sprintf("/api/download/%s", job.ID),
	})
}

// Subscribe opens the SSE stream for a job: current snapshot first, then
// live events until the job finishes or the client hangs up.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	jobID := pathID(r.URL.Path)
	if jobID == "" {
		http.Error(w, "Job id required", http.StatusBadRequest)
		return
	}

	ch, err := h.Hub.Attach(jobID)
	if err != nil {
		if errors.Is(err, hub.ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Subscribe failed", http.StatusInternalServerError)
		return
	}
	defer h.Hub.Detach(jobID, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(event.Snapshot)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data)
			rc.Flush()
			if event.Snapshot.Status.Terminal() {
				return
			}
		}
	}
}

// Download serves the finished artifact when the filesystem backend holds
// it locally.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	jobID := pathID(r.URL.Path)
	if jobID == "" {
		http.Error(w, "Job id required", http.StatusBadRequest)
		return
	}

	job, ok := h.Registry.Get(jobID)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if job.Status != models.StatusDone {
		http.Error(w, "Not ready", http.StatusBadRequest)
		return
	}

	matches, _ := filepath.Glob(filepath.Join(h.Cfg.DownloadDir, jobID+".*"))
	if len(matches) != 1 {
		http.Error(w, "Artifact not available here", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(matches[0])))
	http.ServeFile(w, r, matches[0])
}

// MediaInfo probes the source for its title and available qualities.
func (h *Handler) MediaInfo(w http.ResponseWriter, r *http.Request) {
	sourceURL := r.URL.Query().Get("url")
	if sourceURL == "" {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}

	client := youtube.Client{}
	video, err := client.GetVideo(sourceURL)
	if err != nil {
		http.Error(w, "Could not fetch media info", http.StatusBadGateway)
		return
	}

	qualityMap := make(map[int]string)
	for _, f := range video.Formats {
		if strings.Contains(f.MimeType, "video") && f.QualityLabel != "" {
			if height := parseHeight(f.QualityLabel); height > 0 {
				qualityMap[height] = formatQualityLabel(f.QualityLabel)
			}
		}
	}

	var heights []int
	for height := range qualityMap {
		heights = append(heights, height)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	qualities := make([]string, 0, len(heights))
	for _, height := range heights {
		qualities = append(qualities, qualityMap[height])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"title":     video.Title,
		"qualities": qualities,
	})
}

// pathID extracts the trailing id from /api/<op>/<id>.
func pathID(path string) string {
	parts := strings.Split(strings.TrimRight(path, "/"), "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

var qualityLabelRe = regexp.MustCompile(`^(\d+p)(\d+)?$`)

// formatQualityLabel turns "1080p60" into "1080p 60fps".
func formatQualityLabel(q string) string {
	matches := qualityLabelRe.FindStringSubmatch(q)
	if len(matches) > 1 {
		if matches[2] != "" {
			return fmt.Sprintf("%s %sfps", matches[1], matches[2])
		}
		return matches[1]
	}
	return q
}

func parseHeight(q string) int {
	digits := ""
	for _, c := range q {
		if c >= '0' && c <= '9' {
			digits += string(c)
		} else if digits != "" {
			break
		}
	}
	val, _ := strconv.Atoi(digits)
	return val
}
