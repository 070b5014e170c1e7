// Package pipeline drives each job through fetch, transcode, and publish,
// feeding parsed progress into the registry and the notification hub.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mediapress/internal/config"
	"mediapress/internal/hub"
	"mediapress/internal/jobs"
	"mediapress/internal/metrics"
	"mediapress/internal/models"
	"mediapress/internal/progress"
	"mediapress/internal/storage"
)

// Orchestrator owns job execution. Each submitted job runs on its own
// goroutine; jobs never block one another beyond the concurrency slots.
type Orchestrator struct {
	cfg      *config.Config
	reg      *jobs.Registry
	hub      *hub.Hub
	pub      storage.Publisher
	met      *metrics.Metrics
	launcher Launcher
	slots    chan struct{}
}

func New(cfg *config.Config, reg *jobs.Registry, h *hub.Hub, pub storage.Publisher, met *metrics.Metrics) *Orchestrator {
	return NewWithLauncher(cfg, reg, h, pub, met, execLauncher{})
}

// NewWithLauncher is New with an injectable process launcher, so tests can
// script the external processes.
func NewWithLauncher(cfg *config.Config, reg *jobs.Registry, h *hub.Hub, pub storage.Publisher, met *metrics.Metrics, l Launcher) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		reg:      reg,
		hub:      h,
		pub:      pub,
		met:      met,
		launcher: l,
		slots:    make(chan struct{}, cfg.MaxConcurrentJobs),
	}
}

// Submit registers a queued job and starts its pipeline in the background.
// It returns as soon as the record exists, before any stage runs.
func (o *Orchestrator) Submit(sourceURL string) models.Job {
	job := o.reg.Create(sourceURL)
	o.met.JobCreated()
	go o.run(job)
	return job
}

func (o *Orchestrator) run(job models.Job) {
	select {
	case o.slots <- struct{}{}:
		defer func() { <-o.slots }()
	case <-time.After(o.cfg.QueueWait):
		o.met.JobStarted()
		o.fail(job.ID, fmt.Errorf("server busy, try again later"))
		return
	}

	o.met.JobStarted()
	ctx := context.Background()

	o.apply(job.ID, patchStatus(models.StatusStarting, 0), models.EventUpdate)

	fetched, err := o.download(ctx, job.ID, job.SourceURL)
	if err != nil {
		o.fail(job.ID, err)
		return
	}

	output, err := o.convert(ctx, job.ID, fetched)
	if err != nil {
		o.fail(job.ID, err)
		return
	}

	if err := o.publish(ctx, job.ID, fetched, output); err != nil {
		o.fail(job.ID, err)
		return
	}
}

// download runs the fetcher, streaming parsed percentages to subscribers,
// and returns the path of the fetched intermediate file.
func (o *Orchestrator) download(ctx context.Context, id, sourceURL string) (string, error) {
	start := time.Now()
	o.apply(id, patchStatus(models.StatusDownloading, 0), models.EventUpdate)

	template := filepath.Join(o.cfg.TempDir, id+".%(ext)s")
	proc, err := o.launcher.Start(ctx, o.cfg.FetcherBin, "--newline", "-o", template, sourceURL)
	if err != nil {
		return "", &SpawnError{Stage: "download", Command: o.cfg.FetcherBin, Err: err}
	}

	var wg sync.WaitGroup
	wg.Add(2)

	lastPct := -1
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(proc.Stdout())
		for scanner.Scan() {
			pct, ok := progress.ParseFetcherLine(scanner.Text())
			if ok && pct > lastPct {
				lastPct = pct
				o.apply(id, patchProgress(pct), models.EventDownloadProgress)
			} else {
				// Output without new progress still proves the
				// fetcher is alive.
				o.notify(id, models.EventMessage)
			}
		}
	}()

	var diag tail
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(proc.Stderr())
		for scanner.Scan() {
			diag.add(scanner.Text())
		}
	}()

	wg.Wait()
	if err := proc.Wait(); err != nil {
		return "", &ExecError{
			Stage:    "download",
			Command:  o.cfg.FetcherBin,
			ExitCode: exitCode(err),
			Stderr:   diag.String(),
			Err:      err,
		}
	}
	o.met.StageDuration("download", time.Since(start).Seconds())

	return o.locateFetched(id)
}

// locateFetched finds the intermediate by its id-prefixed filename. The
// fetcher decides the extension, so exactly one match is expected.
func (o *Orchestrator) locateFetched(id string) (string, error) {
	pattern := filepath.Join(o.cfg.TempDir, id+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", &MissingArtifactError{Stage: "download", Pattern: pattern, Matches: len(matches)}
	}
	return matches[0], nil
}

// convert runs the transcoder over the fetched file and returns the path
// of the transcoded output.
func (o *Orchestrator) convert(ctx context.Context, id, inputPath string) (string, error) {
	start := time.Now()
	o.apply(id, patchStatus(models.StatusConverting, 0), models.EventUpdate)

	outputPath := filepath.Join(o.cfg.TempDir, id+".out."+o.cfg.OutputFormat)
	proc, err := o.launcher.Start(ctx, o.cfg.TranscoderBin,
		"-y", "-hide_banner", "-nostats",
		"-i", inputPath,
		"-progress", "pipe:1",
		outputPath,
	)
	if err != nil {
		return "", &SpawnError{Stage: "convert", Command: o.cfg.TranscoderBin, Err: err}
	}

	parser := progress.NewTranscodeParser()

	var wg sync.WaitGroup
	wg.Add(2)

	lastPct := -1
	go func() {
		defer wg.Done()
		buf := make([]byte, 4096)
		for {
			n, readErr := proc.Stdout().Read(buf)
			if n > 0 {
				for _, sig := range parser.Feed(string(buf[:n])) {
					switch {
					case sig.HasPercent && sig.Percent > lastPct:
						lastPct = sig.Percent
						o.apply(id, patchProgress(sig.Percent), models.EventConvertProgress)
					case sig.End:
					default:
						// Duration still unknown, or a repeat of the
						// last surfaced value.
						o.notify(id, models.EventMessage)
					}
				}
			}
			if readErr != nil {
				return
			}
		}
	}()

	// The diagnostic stream is read concurrently so duration discovery is
	// never blocked behind progress-block buffering.
	var diag tail
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(proc.Stderr())
		for scanner.Scan() {
			line := scanner.Text()
			parser.ObserveDiagnostic(line)
			diag.add(line)
		}
	}()

	wg.Wait()
	if err := proc.Wait(); err != nil {
		return "", &ExecError{
			Stage:    "convert",
			Command:  o.cfg.TranscoderBin,
			ExitCode: exitCode(err),
			Stderr:   diag.String(),
			Err:      err,
		}
	}
	o.met.StageDuration("convert", time.Since(start).Seconds())

	if info, err := os.Stat(outputPath); err != nil || info.Size() == 0 {
		pattern := filepath.Join(o.cfg.TempDir, id+".out.*")
		return "", &MissingArtifactError{Stage: "convert", Pattern: pattern}
	}
	return outputPath, nil
}

// publish moves the output to its final home, drops the intermediate, and
// marks the job done.
func (o *Orchestrator) publish(ctx context.Context, id, fetched, output string) error {
	if err := os.Remove(fetched); err != nil {
		log.Printf("⚠️ Job %s: could not remove intermediate %s: %v", id, fetched, err)
	}

	url, err := o.pub.Publish(ctx, id, output)
	if err != nil {
		return err
	}

	done := models.StatusDone
	full := 100
	o.apply(id, models.Patch{Status: &done, Progress: &full, URL: &url}, models.EventDone)
	o.met.JobFinished(string(models.StatusDone))
	log.Printf("✅ Job %s done: %s", id, url)
	return nil
}

// fail moves the job to its terminal error state. Fatal for this job only.
func (o *Orchestrator) fail(id string, cause error) {
	log.Printf("❌ Job %s failed: %v", id, cause)
	errStatus := models.StatusError
	desc := describeFailure(cause)
	o.apply(id, models.Patch{Status: &errStatus, Error: &desc}, models.EventError)
	o.met.JobFinished(string(models.StatusError))
}

// apply merges the patch and broadcasts the merged snapshot.
func (o *Orchestrator) apply(id string, patch models.Patch, kind models.EventKind) {
	job, ok := o.reg.Update(id, patch)
	if !ok {
		return
	}
	o.hub.Broadcast(id, kind, job.Snapshot())
}

// notify broadcasts the current snapshot unchanged.
func (o *Orchestrator) notify(id string, kind models.EventKind) {
	job, ok := o.reg.Get(id)
	if !ok {
		return
	}
	o.hub.Broadcast(id, kind, job.Snapshot())
}

func patchStatus(status models.Status, pct int) models.Patch {
	return models.Patch{Status: &status, Progress: &pct}
}

func patchProgress(pct int) models.Patch {
	return models.Patch{Progress: &pct}
}

// tail keeps the last few diagnostic lines for error reporting.
type tail struct {
	mu    sync.Mutex
	lines []string
}

const tailLines = 8

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > tailLines {
		t.lines = t.lines[len(t.lines)-tailLines:]
	}
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
