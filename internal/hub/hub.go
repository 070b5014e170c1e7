// Package hub fans job state snapshots out to any number of attached
// subscribers over buffered channels.
package hub

import (
	"errors"
	"sync"

	"mediapress/internal/jobs"
	"mediapress/internal/models"
)

// ErrJobNotFound is returned when attaching to an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// subscriberBuffer bounds how far a slow reader may fall behind before
// events are dropped for it.
const subscriberBuffer = 16

// Hub tracks the subscriber set per job and broadcasts snapshots to it.
// Attach and Detach run on connection goroutines concurrently with
// Broadcast on the owning job goroutine.
type Hub struct {
	reg *jobs.Registry

	mu   sync.Mutex
	subs map[string]map[chan models.Event]struct{}
}

func New(reg *jobs.Registry) *Hub {
	return &Hub{
		reg:  reg,
		subs: make(map[string]map[chan models.Event]struct{}),
	}
}

// Attach registers a new subscriber for the job and returns its channel.
// The job's current snapshot is queued on the channel before the channel
// joins the broadcast set, so a subscriber joining mid-job always sees
// initial state first.
func (h *Hub) Attach(id string) (chan models.Event, error) {
	job, ok := h.reg.Get(id)
	if !ok {
		return nil, ErrJobNotFound
	}

	ch := make(chan models.Event, subscriberBuffer)
	ch <- models.Event{Kind: models.EventUpdate, Snapshot: job.Snapshot()}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[id]
	if !ok {
		set = make(map[chan models.Event]struct{})
		h.subs[id] = set
	}
	set[ch] = struct{}{}
	return ch, nil
}

// Detach removes the subscriber and closes its channel. Safe to call
// repeatedly or after the job finished; extra calls are no-ops.
func (h *Hub) Detach(id string, ch chan models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[id]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, id)
	}
}

// Broadcast delivers a tagged snapshot to every subscriber of the job.
// Sends never block: a subscriber whose buffer is full misses this event
// and the rest keep receiving. Unknown ids are ignored.
func (h *Hub) Broadcast(id string, kind models.EventKind, snap models.Snapshot) {
	event := models.Event{Kind: kind, Snapshot: snap}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[id] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers returns the current subscriber count for a job.
func (h *Hub) Subscribers(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[id])
}
