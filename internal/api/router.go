package api

import (
	"net/http"

	"mediapress/internal/metrics"
)

// NewRouter setup routes and apply global middleware
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/job", h.CreateJob)
	mux.HandleFunc("/api/events/", h.Subscribe)
	mux.HandleFunc("/api/download/", h.Download)
	mux.HandleFunc("/api/info", h.MediaInfo)
	mux.Handle("/metrics", metrics.Handler())

	// Finished artifacts, read-only
	mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(h.Cfg.DownloadDir))))

	return CORSMiddleware(mux)
}
