package events

import (
	"testing"

	"github.com/ivankhr/memogen/internal/core/domain"
)

func TestBusDeliversToJobSubscribersOnly(t *testing.T) {
	bus := NewBus()

	var gotA, gotB []string
	bus.Subscribe("job-a", func(job domain.GenerationJob) { gotA = append(gotA, job.Message) })
	bus.Subscribe("job-b", func(job domain.GenerationJob) { gotB = append(gotB, job.Message) })

	bus.Publish(domain.GenerationJob{ID: "job-a", Message: "queued"})
	bus.Publish(domain.GenerationJob{ID: "job-a", Message: "processing"})

	if len(gotA) != 2 || gotA[0] != "queued" || gotA[1] != "processing" {
		t.Fatalf("expected ordered delivery to job-a, got %v", gotA)
	}
	if len(gotB) != 0 {
		t.Fatalf("job-b must not see job-a events, got %v", gotB)
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	var kept, removed int
	bus.Subscribe("job-a", func(domain.GenerationJob) { kept++ })
	sub := bus.Subscribe("job-a", func(domain.GenerationJob) { removed++ })

	bus.Publish(domain.GenerationJob{ID: "job-a"})
	bus.Unsubscribe(sub)
	bus.Publish(domain.GenerationJob{ID: "job-a"})

	if kept != 2 {
		t.Fatalf("remaining subscriber should get both events, got %d", kept)
	}
	if removed != 1 {
		t.Fatalf("unsubscribed handler should get one event, got %d", removed)
	}
}

func TestBusHandlerGetsIsolatedSnapshot(t *testing.T) {
	bus := NewBus()

	var seen []string
	bus.Subscribe("job-a", func(job domain.GenerationJob) {
		job.SourceIDs[0] = "mutated"
		job.Metadata.Extra["floors"] = "mutated"
		seen = append(seen, job.SourceIDs[0])
	})
	bus.Subscribe("job-a", func(job domain.GenerationJob) {
		seen = append(seen, job.SourceIDs[0], job.Metadata.Extra["floors"])
	})

	published := domain.GenerationJob{
		ID:        "job-a",
		SourceIDs: []string{"doc-1"},
		Metadata:  domain.ContentMetadata{Extra: map[string]string{"floors": "12"}},
	}
	bus.Publish(published)

	if len(seen) != 3 || seen[1] != "doc-1" || seen[2] != "12" {
		t.Fatalf("second handler saw mutation from first: %v", seen)
	}
	if published.SourceIDs[0] != "doc-1" || published.Metadata.Extra["floors"] != "12" {
		t.Fatalf("handler mutation reached the published job: %+v", published)
	}
}

func TestBusSubscriberAddedAfterPublishMissesIt(t *testing.T) {
	bus := NewBus()
	bus.Publish(domain.GenerationJob{ID: "job-a", Message: "early"})

	var got []string
	bus.Subscribe("job-a", func(job domain.GenerationJob) { got = append(got, job.Message) })
	bus.Publish(domain.GenerationJob{ID: "job-a", Message: "late"})

	if len(got) != 1 || got[0] != "late" {
		t.Fatalf("expected only the late event, got %v", got)
	}
}

func TestBusDropJobRemovesAllSubscribers(t *testing.T) {
	bus := NewBus()

	var calls int
	bus.Subscribe("job-a", func(domain.GenerationJob) { calls++ })
	bus.Subscribe("job-a", func(domain.GenerationJob) { calls++ })

	bus.DropJob("job-a")
	bus.Publish(domain.GenerationJob{ID: "job-a"})

	if calls != 0 {
		t.Fatalf("expected no delivery after DropJob, got %d", calls)
	}
}
