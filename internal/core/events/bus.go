// Package events implements the per-job publish/subscribe fan-out used to
// push job state and progress updates to listeners.
package events

import (
	"sync"

	"github.com/ivankhr/memogen/internal/core/domain"
)

// Handler receives a snapshot of a job after every published update.
type Handler func(job domain.GenerationJob)

// Subscription identifies one registered handler so it can be removed later.
type Subscription struct {
	jobID string
	id    uint64
}

type entry struct {
	id      uint64
	handler Handler
}

// Bus is a per-job subscriber registry. Publish delivers synchronously, in
// subscription order, to the handlers registered at publish time. Handlers
// registered afterwards do not receive earlier publishes.
type Bus struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers map[string][]entry
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]entry)}
}

func (b *Bus) Subscribe(jobID string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subscribers[jobID] = append(b.subscribers[jobID], entry{id: b.nextID, handler: handler})
	return Subscription{jobID: jobID, id: b.nextID}
}

func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.subscribers[sub.jobID]
	for i, e := range entries {
		if e.id == sub.id {
			b.subscribers[sub.jobID] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(b.subscribers[sub.jobID]) == 0 {
		delete(b.subscribers, sub.jobID)
	}
}

// Publish delivers the job snapshot to every current subscriber for its id.
// Each handler gets its own copy so no handler can corrupt shared state.
func (b *Bus) Publish(job domain.GenerationJob) {
	b.mu.Lock()
	entries := append([]entry(nil), b.subscribers[job.ID]...)
	b.mu.Unlock()

	for _, e := range entries {
		e.handler(job.Snapshot())
	}
}

// DropJob removes all subscribers for a job, used when a job is evicted.
func (b *Bus) DropJob(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, jobID)
}
