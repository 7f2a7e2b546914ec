package inprocess

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ivankhr/memogen/internal/core/domain"
)

func TestScheduleRunsJobOnBaseContext(t *testing.T) {
	base := context.Background()
	ran := make(chan string, 1)

	scheduler := New(base, func(ctx context.Context, jobID string) error {
		if ctx.Err() != nil {
			t.Errorf("run context already cancelled")
		}
		ran <- jobID
		return nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// The request context is already cancelled; execution must not inherit it.
	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := scheduler.Schedule(reqCtx, domain.GenerationJob{ID: "job-1"}); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	select {
	case id := <-ran:
		if id != "job-1" {
			t.Fatalf("unexpected job id %q", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("job was not executed")
	}
}
