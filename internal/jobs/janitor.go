package jobs

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"mediapress/internal/config"
	"mediapress/internal/models"
)

// Janitor evicts finished job records and their on-disk artifacts once they
// outlive the retention window, so the registry and download directory do
// not grow without bound.
type Janitor struct {
	cfg *config.Config
	reg *Registry
}

func NewJanitor(cfg *config.Config, reg *Registry) *Janitor {
	return &Janitor{cfg: cfg, reg: reg}
}

// Start runs the sweep loop in its own goroutine.
func (j *Janitor) Start() {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		for range ticker.C {
			j.sweep(time.Now())
		}
	}()
}

func (j *Janitor) sweep(now time.Time) {
	j.reg.Range(func(job models.Job) bool {
		if now.Sub(job.CreatedAt) < j.cfg.CleanupAfter {
			return true
		}
		if !job.Status.Terminal() {
			// A hung external process keeps its job alive forever;
			// surface it to the operator instead of evicting it.
			log.Printf("⏳ Janitor: job %s still %s after %s", job.ID, job.Status, j.cfg.CleanupAfter)
			return true
		}
		j.removeArtifacts(job.ID)
		j.reg.Delete(job.ID)
		log.Println("🧹 Cleaned up job:", job.ID)
		return true
	})
}

// removeArtifacts drops any published output and stray intermediates for
// the job. Best effort.
func (j *Janitor) removeArtifacts(id string) {
	for _, dir := range []string{j.cfg.DownloadDir, j.cfg.TempDir} {
		matches, err := filepath.Glob(filepath.Join(dir, id+".*"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				log.Printf("❌ Janitor: could not remove %s: %v", path, err)
			}
		}
	}
}
