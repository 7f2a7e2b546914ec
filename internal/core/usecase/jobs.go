package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankhr/memogen/internal/core/domain"
	"github.com/ivankhr/memogen/internal/core/events"
	"github.com/ivankhr/memogen/internal/core/ports"
)

// Overall job progress bands. The pipeline reports per-stage percentages
// which are rescaled into these.
const (
	bandPreflightEnd   = 10
	bandGenerationEnd  = 70
	bandEnhancementEnd = 90
	bandValidationEnd  = 95
)

var errAlreadyTerminal = errors.New("job already terminal")

// JobManager owns job records and their state machine:
// queued -> processing -> completed|failed, with failed -> queued via retry.
// Every state transition and progress update is published on the event bus
// as one atomic unit with the record mutation.
type JobManager struct {
	registry  ports.JobRegistry
	templates ports.TemplateStore
	sources   ports.SourceStore
	contents  ports.ContentStore
	pipeline  *ContentPipeline
	bus       *events.Bus
	scheduler ports.JobScheduler
	logger    *slog.Logger
}

func NewJobManager(
	registry ports.JobRegistry,
	templates ports.TemplateStore,
	sources ports.SourceStore,
	contents ports.ContentStore,
	pipeline *ContentPipeline,
	bus *events.Bus,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		registry:  registry,
		templates: templates,
		sources:   sources,
		contents:  contents,
		pipeline:  pipeline,
		bus:       bus,
		logger:    logger,
	}
}

// SetScheduler wires the asynchronous execution backend. Bootstrap calls it
// after construction because in-process scheduling closes over StartJob.
func (m *JobManager) SetScheduler(scheduler ports.JobScheduler) {
	m.scheduler = scheduler
}

// CreateJob validates inputs, allocates a queued job, emits the creation
// event, and schedules asynchronous execution. Validation failures surface
// immediately; no job record is created for them.
func (m *JobManager) CreateJob(
	ctx context.Context,
	templateID string,
	sourceIDs []string,
	metadata domain.ContentMetadata,
) (domain.GenerationJob, error) {
	if err := m.validateInputs(ctx, templateID, sourceIDs, metadata); err != nil {
		return domain.GenerationJob{}, err
	}

	now := time.Now().UTC()
	job := &domain.GenerationJob{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		SourceIDs:  append([]string(nil), sourceIDs...),
		Metadata:   metadata,
		Status:     domain.JobQueued,
		Message:    "queued",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.registry.Create(ctx, job); err != nil {
		return domain.GenerationJob{}, fmt.Errorf("register job: %w", err)
	}
	m.bus.Publish(job.Snapshot())

	if err := m.schedule(ctx, job.Snapshot()); err != nil {
		return job.Snapshot(), err
	}
	return job.Snapshot(), nil
}

// StartJob transitions a queued job to processing and drives the content
// pipeline to a terminal state. Any failure past validation lands in the
// job's status/error fields, never in a panic or an error surfacing to the
// presentation layer.
func (m *JobManager) StartJob(ctx context.Context, jobID string) error {
	snap, err := m.registry.Update(ctx, jobID, func(job *domain.GenerationJob) error {
		if job.Status != domain.JobQueued {
			return domain.WrapError(domain.ErrValidation, "start job",
				fmt.Errorf("job is %s, expected %s", job.Status, domain.JobQueued))
		}
		job.Status = domain.JobProcessing
		job.Progress = 0
		job.Message = "starting generation"
		job.Error = ""
		job.Result = nil
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return err
	}
	m.bus.Publish(snap)

	template, docs, err := m.resolveInputs(ctx, snap)
	if err != nil {
		m.fail(ctx, jobID, err)
		return err
	}
	m.setProgress(ctx, jobID, bandPreflightEnd, "template and sources resolved")

	// The cancel func is the cooperative stop signal: progress updates notice
	// when the job has left processing (CancelJob raced us) and stop the
	// pipeline at its next suspension point.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	report := func(stage PipelineStage, percent int) {
		if !m.setProgress(runCtx, jobID, scaleProgress(stage, percent), stageMessage(stage)) {
			cancelRun()
		}
	}

	content, err := m.pipeline.Run(runCtx, template, docs, snap.Metadata, report)
	if err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			m.logger.Info("pipeline stopped after cancellation", "job_id", jobID)
			return nil
		}
		m.fail(ctx, jobID, err)
		return err
	}

	m.setProgress(ctx, jobID, bandValidationEnd, "persisting result")
	if err := m.contents.Save(ctx, content); err != nil {
		err = fmt.Errorf("persist generated content: %w", err)
		m.fail(ctx, jobID, err)
		return err
	}

	// A late success must not resurrect a job that was cancelled while the
	// pipeline was in flight, so completion only lands while still processing.
	final, err := m.registry.Update(ctx, jobID, func(job *domain.GenerationJob) error {
		if job.Status != domain.JobProcessing {
			return domain.WrapError(domain.ErrCancelled, "complete job",
				fmt.Errorf("job left %s before completion", domain.JobProcessing))
		}
		job.Status = domain.JobCompleted
		job.Progress = 100
		job.Message = "completed"
		job.Result = content
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		m.logger.Info("completion suppressed for cancelled job", "job_id", jobID)
		return nil
	}
	m.bus.Publish(final)
	return nil
}

// CancelJob flips a queued or processing job to failed with a cancellation
// error. It is cooperative: in-flight completion calls are not aborted, but
// their outcome can no longer overwrite the terminal state. Returns whether
// the cancellation was applied.
func (m *JobManager) CancelJob(ctx context.Context, jobID string) (bool, error) {
	snap, err := m.registry.Update(ctx, jobID, func(job *domain.GenerationJob) error {
		if job.Status.Terminal() {
			return errAlreadyTerminal
		}
		job.Status = domain.JobFailed
		job.Error = domain.ErrCancelled.Error()
		job.Message = "cancelled"
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
	if errors.Is(err, errAlreadyTerminal) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	m.bus.Publish(snap)
	return true, nil
}

// RetryJob re-queues a failed job with progress and error reset, then
// schedules a fresh execution.
func (m *JobManager) RetryJob(ctx context.Context, jobID string) error {
	snap, err := m.registry.Update(ctx, jobID, func(job *domain.GenerationJob) error {
		if job.Status != domain.JobFailed {
			return domain.WrapError(domain.ErrValidation, "retry job",
				fmt.Errorf("job is %s, expected %s", job.Status, domain.JobFailed))
		}
		job.Status = domain.JobQueued
		job.Progress = 0
		job.Error = ""
		job.Result = nil
		job.Message = "queued for retry"
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return err
	}
	m.bus.Publish(snap)

	return m.schedule(ctx, snap)
}

func (m *JobManager) GetJob(ctx context.Context, jobID string) (domain.GenerationJob, error) {
	return m.registry.GetByID(ctx, jobID)
}

// AdoptJob installs a job scheduled by another process into the local
// registry so StartJob can drive it. An existing record is reset to the
// incoming queued snapshot, which covers redelivered retries.
func (m *JobManager) AdoptJob(ctx context.Context, job domain.GenerationJob) error {
	_, err := m.registry.Update(ctx, job.ID, func(stored *domain.GenerationJob) error {
		*stored = job.Snapshot()
		return nil
	})
	if err == nil {
		return nil
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		return err
	}
	adopted := job.Snapshot()
	return m.registry.Create(ctx, &adopted)
}

// Subscribe registers a handler for a job's state/progress events.
func (m *JobManager) Subscribe(jobID string, handler events.Handler) events.Subscription {
	return m.bus.Subscribe(jobID, handler)
}

func (m *JobManager) Unsubscribe(sub events.Subscription) {
	m.bus.Unsubscribe(sub)
}

func (m *JobManager) schedule(ctx context.Context, job domain.GenerationJob) error {
	if m.scheduler == nil {
		return nil
	}
	if err := m.scheduler.Schedule(ctx, job); err != nil {
		err = fmt.Errorf("schedule job execution: %w", err)
		m.fail(ctx, job.ID, err)
		return err
	}
	return nil
}

func (m *JobManager) validateInputs(
	ctx context.Context,
	templateID string,
	sourceIDs []string,
	metadata domain.ContentMetadata,
) error {
	if strings.TrimSpace(metadata.AssetName) == "" {
		return domain.WrapError(domain.ErrValidation, "create job", errors.New("asset name is required"))
	}
	if strings.TrimSpace(metadata.AssetType) == "" {
		return domain.WrapError(domain.ErrValidation, "create job", errors.New("asset type is required"))
	}
	if len(sourceIDs) == 0 {
		return domain.WrapError(domain.ErrValidation, "create job", errors.New("at least one source document is required"))
	}
	if _, err := m.templates.GetByID(ctx, templateID); err != nil {
		return domain.WrapError(domain.ErrValidation, "create job", fmt.Errorf("template %s: %w", templateID, err))
	}
	for _, id := range sourceIDs {
		if _, err := m.sources.GetByID(ctx, id); err != nil {
			return domain.WrapError(domain.ErrValidation, "create job", fmt.Errorf("source document %s: %w", id, err))
		}
	}
	return nil
}

func (m *JobManager) resolveInputs(ctx context.Context, job domain.GenerationJob) (*domain.Template, []domain.SourceDocument, error) {
	template, err := m.templates.GetByID(ctx, job.TemplateID)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrNotFound, "resolve template", err)
	}

	docs := make([]domain.SourceDocument, 0, len(job.SourceIDs))
	for _, id := range job.SourceIDs {
		doc, err := m.sources.GetByID(ctx, id)
		if err != nil {
			return nil, nil, domain.WrapError(domain.ErrNotFound, "resolve source document", err)
		}
		docs = append(docs, *doc)
	}
	return template, docs, nil
}

// setProgress advances a processing job's progress monotonically and
// publishes the update. Returns false when the job has left processing,
// which tells the caller to stop driving the pipeline.
func (m *JobManager) setProgress(ctx context.Context, jobID string, progress int, message string) bool {
	snap, err := m.registry.Update(ctx, jobID, func(job *domain.GenerationJob) error {
		if job.Status != domain.JobProcessing {
			return domain.WrapError(domain.ErrCancelled, "update progress",
				fmt.Errorf("job is %s", job.Status))
		}
		if progress > job.Progress {
			job.Progress = progress
		}
		job.Message = message
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return false
	}
	m.bus.Publish(snap)
	return true
}

// fail moves a job to failed unless it already reached a terminal state.
func (m *JobManager) fail(ctx context.Context, jobID string, cause error) {
	snap, err := m.registry.Update(ctx, jobID, func(job *domain.GenerationJob) error {
		if job.Status.Terminal() {
			return errAlreadyTerminal
		}
		job.Status = domain.JobFailed
		job.Error = cause.Error()
		job.Message = "failed"
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		if !errors.Is(err, errAlreadyTerminal) {
			m.logger.Error("mark job failed", "job_id", jobID, "error", err)
		}
		return
	}
	m.logger.Warn("job failed", "job_id", jobID, "error", cause)
	m.bus.Publish(snap)
}

func scaleProgress(stage PipelineStage, percent int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	switch stage {
	case StageGeneration:
		return bandPreflightEnd + percent*(bandGenerationEnd-bandPreflightEnd)/100
	case StageEnhancement:
		return bandGenerationEnd + percent*(bandEnhancementEnd-bandGenerationEnd)/100
	case StageValidation:
		return bandEnhancementEnd + percent*(bandValidationEnd-bandEnhancementEnd)/100
	default:
		return bandPreflightEnd
	}
}

func stageMessage(stage PipelineStage) string {
	switch stage {
	case StageGeneration:
		return "generating sections"
	case StageEnhancement:
		return "enhancing content quality"
	case StageValidation:
		return "validating coherence"
	default:
		return "processing"
	}
}
