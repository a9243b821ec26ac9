// Package worker polls the job queue and drives the segmentation
// engine. Any number of runner processes can share one queue: leases
// are taken with FOR UPDATE SKIP LOCKED, so a job runs exactly once.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voter-segmentation/internal/repository"
	"github.com/voter-segmentation/pkg/config"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/model"
	"github.com/voter-segmentation/pkg/utils"
)

// SegmentRunner executes one segmentation run. Satisfied by the engine.
type SegmentRunner interface {
	Run(ctx context.Context, jobID, electionID, nodeID string, version int) (*model.RunResult, error)
}

// ArtifactExporter publishes a completed run. Satisfied by the
// GeoJSON exporter.
type ArtifactExporter interface {
	ExportRun(ctx context.Context, nodeID string, version int) (string, error)
}

// Runner polls for queued jobs and processes them one at a time per
// worker goroutine.
type Runner struct {
	store        *repository.Store
	engine       SegmentRunner
	logger       utils.Logger
	pollInterval time.Duration
	workers      int
	exporter     ArtifactExporter
	clock        utils.Clock

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRunner creates a Runner using the worker configuration.
func NewRunner(store *repository.Store, engine SegmentRunner, cfg *config.WorkerConfig, logger utils.Logger) *Runner {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	workers := cfg.Count
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		store:        store,
		engine:       engine,
		logger:       logger,
		pollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		workers:      workers,
		clock:        utils.NewRealClock(),
		stopCh:       make(chan struct{}),
	}
}

// SetExporter enables run artifact publication after job completion.
func (r *Runner) SetExporter(exporter ArtifactExporter) {
	r.exporter = exporter
}

// Start launches the worker goroutines. It returns immediately.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("starting %d segmentation workers, polling every %s", r.workers, r.pollInterval)
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.loop(ctx, i)
	}
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
	r.logger.Info("segmentation workers stopped")
}

func (r *Runner) loop(ctx context.Context, id int) {
	defer r.wg.Done()
	logger := r.logger.WithField("worker", id)

	ticker := r.clock.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		// Drain the queue before going back to sleep, so a burst of
		// jobs does not pay the poll interval between each one.
		for {
			processed, err := r.RunOnce(ctx)
			if err != nil {
				logger.Error("job processing failed: %v", err)
				break
			}
			if !processed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims and processes at most one job. It reports whether a
// job was processed. A failed run is not an error here: the failure is
// recorded on the job row and surfaced as an exception.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	job, err := r.store.Jobs.ClaimNext(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	logger := r.logger.WithField("job_id", job.ID)
	logger.Info("claimed job for node %s", job.NodeID)

	version, err := r.store.Jobs.NextVersion(ctx, job.NodeID)
	if err != nil {
		r.failJob(ctx, job, err)
		return true, nil
	}

	result, err := r.engine.Run(ctx, job.ID, job.ElectionID, job.NodeID, version)
	if err != nil {
		logger.Error("run failed: %v", err)
		r.failJob(ctx, job, err)
		return true, nil
	}

	blob, err := result.Marshal()
	if err != nil {
		r.failJob(ctx, job, err)
		return true, nil
	}
	if err := r.store.Jobs.MarkCompleted(ctx, job.ID, version, repository.JSONField(blob)); err != nil {
		return true, err
	}

	logger.Info("job completed: v%d, %d segments, hash %s", version, result.SegmentCount, result.RunHash)

	// The run is committed; a failed export must not fail the job.
	if r.exporter != nil {
		if url, err := r.exporter.ExportRun(ctx, job.NodeID, version); err != nil {
			logger.Warn("run artifact export failed: %v", err)
		} else {
			logger.Info("run artifact at %s", url)
		}
	}
	return true, nil
}

// failJob marks the job failed and writes a high-severity exception
// carrying the error code so operators can find it without log access.
func (r *Runner) failJob(ctx context.Context, job *repository.SegmentationJob, runErr error) {
	if err := r.store.Jobs.MarkFailed(ctx, job.ID, runErr.Error()); err != nil {
		r.logger.Error("could not mark job %s failed: %v", job.ID, err)
	}

	errorID := uuid.NewString()
	meta, err := repository.MarshalJSONField(map[string]any{
		"job_id":     job.ID,
		"node_id":    job.NodeID,
		"error_id":   errorID,
		"error_code": apperrors.GetErrorCode(runErr),
		"reason":     apperrors.CodeJobFailed,
		"message":    apperrors.GetErrorMessage(runErr),
	})
	if err != nil {
		r.logger.Error("could not marshal exception metadata: %v", err)
		return
	}

	exc := &repository.Exception{
		ID:         uuid.NewString(),
		ElectionID: job.ElectionID,
		EntityType: "segment",
		Severity:   string(model.SeverityHigh),
		Type:       model.ExceptionTypeOther,
		Metadata:   meta,
	}
	if err := r.store.Exceptions.Create(ctx, exc); err != nil {
		r.logger.Error("could not record exception for job %s: %v", job.ID, err)
	}
}
