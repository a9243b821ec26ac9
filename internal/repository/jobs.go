package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voter-segmentation/pkg/model"
)

// GormJobRepository implements JobRepository using GORM.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository.
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Create inserts a queued job row.
func (r *GormJobRepository) Create(ctx context.Context, job *SegmentationJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.JobType == "" {
		job.JobType = string(model.JobTypeAutoSegment)
	}
	if job.Status == "" {
		job.Status = string(model.JobStatusQueued)
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by id.
func (r *GormJobRepository) GetByID(ctx context.Context, id string) (*SegmentationJob, error) {
	var job SegmentationJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ClaimNext leases the oldest queued auto-segment job. The row lock with
// SKIP LOCKED excludes rows other workers already hold; the conditional
// status transition guards against a job vanishing between the select
// and the update (that case is a silent skip). Returns nil when nothing
// is claimable.
func (r *GormJobRepository) ClaimNext(ctx context.Context) (*SegmentationJob, error) {
	var claimed *SegmentationJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var jobs []SegmentationJob
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("job_type = ? AND status = ?", model.JobTypeAutoSegment, model.JobStatusQueued).
			Order("created_at ASC").
			Order("id ASC").
			Limit(1).
			Find(&jobs).Error
		if err != nil {
			return fmt.Errorf("failed to select queued job: %w", err)
		}
		if len(jobs) == 0 {
			return nil
		}

		job := jobs[0]
		now := time.Now().UTC()
		res := tx.Model(&SegmentationJob{}).
			Where("id = ? AND status = ?", job.ID, model.JobStatusQueued).
			Updates(map[string]interface{}{
				"status":     string(model.JobStatusRunning),
				"started_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to transition job to running: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race after all; leave the job for another poll.
			return nil
		}

		job.Status = string(model.JobStatusRunning)
		job.StartedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// NextVersion computes the next version number for a node as
// max(existing version)+1, starting at 1.
func (r *GormJobRepository) NextVersion(ctx context.Context, nodeID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&SegmentationJob{}).
		Where("node_id = ?", nodeID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute next version: %w", err)
	}
	return max + 1, nil
}

// MarkCompleted transitions a running job to completed.
func (r *GormJobRepository) MarkCompleted(ctx context.Context, id string, version int, result JSONField) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&SegmentationJob{}).
		Where("id = ? AND status = ?", id, model.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":      string(model.JobStatusCompleted),
			"version":     version,
			"finished_at": now,
			"result":      result,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to complete job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job not running: %s", id)
	}
	return nil
}

// MarkFailed transitions a job to failed with an error message.
func (r *GormJobRepository) MarkFailed(ctx context.Context, id string, message string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&SegmentationJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      string(model.JobStatusFailed),
			"finished_at": now,
			"error":       message,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark job failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}
