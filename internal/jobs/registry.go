package jobs

import (
	"sync"
	"time"

	"mediapress/internal/models"

	"github.com/google/uuid"
)

// Registry is the authoritative in-memory job store. Records are keyed by
// uuid so no lookup for a fresh id can race another store, and each record
// carries its own lock so updates to distinct jobs never contend.
type Registry struct {
	jobs sync.Map
}

type entry struct {
	mu  sync.Mutex
	job models.Job
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Create allocates a queued record and returns a copy of it.
func (r *Registry) Create(sourceURL string) models.Job {
	job := models.Job{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		Status:    models.StatusQueued,
		CreatedAt: time.Now(),
	}
	r.jobs.Store(job.ID, &entry{job: job})
	return job
}

// Get returns a copy of the record, or false if the id is unknown.
func (r *Registry) Get(id string) (models.Job, bool) {
	val, ok := r.jobs.Load(id)
	if !ok {
		return models.Job{}, false
	}
	e := val.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job, true
}

// Update merges the patch into the record and returns the merged copy.
// Once a record is terminal the patch is ignored and the frozen state is
// returned. Returns false if the id is unknown.
func (r *Registry) Update(id string, patch models.Patch) (models.Job, bool) {
	val, ok := r.jobs.Load(id)
	if !ok {
		return models.Job{}, false
	}
	e := val.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Status.Terminal() {
		return e.job, true
	}
	if patch.Status != nil && !e.job.Status.CanTransition(*patch.Status) {
		patch.Status = nil
	}
	e.job = patch.Apply(e.job)
	return e.job, true
}

// Delete removes the record. Used only by the janitor.
func (r *Registry) Delete(id string) {
	r.jobs.Delete(id)
}

// Range visits a copy of every record until fn returns false.
func (r *Registry) Range(fn func(job models.Job) bool) {
	r.jobs.Range(func(_, val interface{}) bool {
		e := val.(*entry)
		e.mu.Lock()
		job := e.job
		e.mu.Unlock()
		return fn(job)
	})
}
