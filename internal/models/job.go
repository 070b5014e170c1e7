package models

import (
	"time"
)

// Status is the lifecycle stage of a job. Transitions only move forward
// along the order below, except Error, which is reachable from any
// non-terminal status.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusConverting  Status = "converting"
	StatusDone        Status = "done"
	StatusError       Status = "error"
)

// statusRank orders the forward progression for transition checks.
var statusRank = map[Status]int{
	StatusQueued:      0,
	StatusStarting:    1,
	StatusDownloading: 2,
	StatusConverting:  3,
	StatusDone:        4,
	StatusError:       5,
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// CanTransition reports whether moving from s to next is a legal step.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusError {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Job holds the full state of one fetch-and-transcode request.
type Job struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"-"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// Snapshot is the complete externally visible state of a job. Every event
// carries one, never a diff.
type Snapshot struct {
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Snapshot copies the observable fields out of the job.
func (j Job) Snapshot() Snapshot {
	return Snapshot{
		Status:   j.Status,
		Progress: j.Progress,
		URL:      j.URL,
		Error:    j.Error,
	}
}

// Patch is a partial update to a job. Nil fields are left untouched by the
// merge, so an update never clears a field it did not intend to change.
type Patch struct {
	Status   *Status
	Progress *int
	URL      *string
	Error    *string
}

// Apply merges the patch into a copy of the job. Progress is clamped to
// [0, 100]. Pure function; the registry serializes calls per record.
func (p Patch) Apply(j Job) Job {
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Progress != nil {
		pct := *p.Progress
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		j.Progress = pct
	}
	if p.URL != nil {
		j.URL = *p.URL
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
	return j
}

// EventKind tags a broadcast so subscribers can tell progress ticks from
// lifecycle changes.
type EventKind string

const (
	EventUpdate           EventKind = "update"
	EventDownloadProgress EventKind = "download-progress"
	EventConvertProgress  EventKind = "convert-progress"
	EventMessage          EventKind = "message"
	EventDone             EventKind = "done"
	EventError            EventKind = "error"
)

// Event is one push notification delivered to a subscriber.
type Event struct {
	Kind     EventKind `json:"event"`
	Snapshot Snapshot  `json:"data"`
}
