package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ivankhr/memogen/internal/core/domain"
)

// sseBufferSize bounds the per-subscriber event queue; a slow client drops
// intermediate progress updates rather than blocking the publisher.
const sseBufferSize = 16

// jobEvents streams job state and progress updates as server-sent events
// until the job reaches a terminal state or the client disconnects.
func (rt *Router) jobEvents(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	job, err := rt.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	// The terminal snapshot gets a dedicated slot so a slow client that
	// overflows the progress buffer still sees the stream close.
	updates := make(chan domain.GenerationJob, sseBufferSize)
	terminal := make(chan domain.GenerationJob, 1)
	sub := rt.jobs.Subscribe(jobID, func(snapshot domain.GenerationJob) {
		if snapshot.Status.Terminal() {
			select {
			case terminal <- snapshot:
			default:
			}
			return
		}
		select {
		case updates <- snapshot:
		default:
		}
	})
	defer rt.jobs.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if !rt.sendJobEvent(w, flusher, job) {
		return
	}
	if job.Status.Terminal() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot := <-updates:
			if !rt.sendJobEvent(w, flusher, snapshot) {
				return
			}
		case snapshot := <-terminal:
			// Drain queued progress before the final event.
			for {
				select {
				case queued := <-updates:
					if !rt.sendJobEvent(w, flusher, queued) {
						return
					}
				default:
					rt.sendJobEvent(w, flusher, snapshot)
					return
				}
			}
		}
	}
}

func (rt *Router) sendJobEvent(w http.ResponseWriter, flusher http.Flusher, job domain.GenerationJob) bool {
	payload, err := json.Marshal(job)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()
	if rt.metrics != nil {
		rt.metrics.RecordJobEventSent(rt.service)
	}
	return true
}
