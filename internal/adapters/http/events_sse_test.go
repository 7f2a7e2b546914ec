package httpadapter

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ivankhr/memogen/internal/core/domain"
)

func decodeSSEEvents(t *testing.T, body string) []domain.GenerationJob {
	t.Helper()
	var out []domain.GenerationJob
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var job domain.GenerationJob
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &job); err != nil {
			t.Fatalf("decode sse event %q: %v", line, err)
		}
		out = append(out, job)
	}
	return out
}

func TestJobEventsStreamsTerminalSnapshotAndCloses(t *testing.T) {
	fx := newAPIFixture(t, TrafficConfig{})
	job := fx.seedJob(t)
	if _, err := fx.manager.CancelJob(context.Background(), job.ID); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}

	res := fx.do(t, http.MethodGet, "/v1/jobs/"+job.ID+"/events", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}

	streamed := decodeSSEEvents(t, res.Body.String())
	if len(streamed) != 1 {
		t.Fatalf("expected single snapshot for terminal job, got %d", len(streamed))
	}
	if streamed[0].Status != domain.JobFailed {
		t.Fatalf("expected failed snapshot, got %+v", streamed[0])
	}
}

func TestJobEventsStreamsUpdatesUntilTerminal(t *testing.T) {
	fx := newAPIFixture(t, TrafficConfig{})
	job := fx.seedJob(t)

	server := httptest.NewServer(fx.handler)
	defer server.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(server.URL + "/v1/jobs/" + job.ID + "/events")
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent := func() domain.GenerationJob {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read event: %v", err)
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var snapshot domain.GenerationJob
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
				t.Fatalf("decode event %q: %v", line, err)
			}
			return snapshot
		}
	}

	first := readEvent()
	if first.Status != domain.JobQueued {
		t.Fatalf("first event should be the queued snapshot, got %+v", first)
	}

	if _, err := fx.manager.CancelJob(context.Background(), job.ID); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}

	last := readEvent()
	if last.Status != domain.JobFailed {
		t.Fatalf("expected terminal event, got %+v", last)
	}

	// The server ends the stream after the terminal event.
	if _, err := reader.ReadString('\n'); err == nil {
		if _, err := reader.ReadString('\n'); err == nil {
			t.Fatalf("expected stream to close after terminal event")
		}
	}
}

func TestJobEventsSlowClientStillSeesTerminalEvent(t *testing.T) {
	fx := newAPIFixture(t, TrafficConfig{})
	job := fx.seedJob(t)

	server := httptest.NewServer(fx.handler)
	defer server.Close()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(server.URL + "/v1/jobs/" + job.ID + "/events")
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read initial event: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			break
		}
	}

	// Flood the subscriber with more oversized progress updates than its
	// buffer holds while the client is not reading, then finish the job.
	padding := strings.Repeat("x", 256*1024)
	for i := 0; i < sseBufferSize+8; i++ {
		snap := job
		snap.Status = domain.JobProcessing
		snap.Progress = i
		snap.Message = padding
		fx.bus.Publish(snap)
	}
	done := job
	done.Status = domain.JobCompleted
	done.Progress = 100
	fx.bus.Publish(done)

	var last domain.GenerationJob
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		if err := json.Unmarshal([]byte(payload), &last); err != nil {
			t.Fatalf("decode event: %v", err)
		}
	}
	if !last.Status.Terminal() {
		t.Fatalf("stream ended without the terminal event, last status %q", last.Status)
	}
}

func TestJobEventsUnknownJob(t *testing.T) {
	fx := newAPIFixture(t, TrafficConfig{})

	res := fx.do(t, http.MethodGet, "/v1/jobs/unknown/events", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestJobEventsRejectsNonGET(t *testing.T) {
	fx := newAPIFixture(t, TrafficConfig{})
	job := fx.seedJob(t)

	res := fx.do(t, http.MethodPost, "/v1/jobs/"+job.ID+"/events", nil, "")
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
