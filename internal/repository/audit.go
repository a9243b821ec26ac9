package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExceptionRepository implements ExceptionRepository using GORM.
type GormExceptionRepository struct {
	db *gorm.DB
}

// NewGormExceptionRepository creates a new GormExceptionRepository.
func NewGormExceptionRepository(db *gorm.DB) *GormExceptionRepository {
	return &GormExceptionRepository{db: db}
}

// Create inserts an exception row.
func (r *GormExceptionRepository) Create(ctx context.Context, exc *Exception) error {
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(exc).Error; err != nil {
		return fmt.Errorf("failed to create exception: %w", err)
	}
	return nil
}

// ListByJobID retrieves exceptions whose metadata references a job.
// Exceptions reference jobs via metadata, not a foreign key.
func (r *GormExceptionRepository) ListByJobID(ctx context.Context, jobID string) ([]Exception, error) {
	var rows []Exception
	err := r.db.WithContext(ctx).
		Where("metadata ->> 'job_id' = ?", jobID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}
	return rows, nil
}

// GormAuditRepository implements AuditRepository using GORM.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository.
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// CreateBatch inserts an audit batch row.
func (r *GormAuditRepository) CreateBatch(ctx context.Context, batch *AuditBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return fmt.Errorf("failed to create audit batch: %w", err)
	}
	return nil
}

// CreateMovements inserts audit movement rows.
func (r *GormAuditRepository) CreateMovements(ctx context.Context, movements []AuditMovement) error {
	if len(movements) == 0 {
		return nil
	}
	for i := range movements {
		if movements[i].ID == "" {
			movements[i].ID = uuid.NewString()
		}
	}
	if err := r.db.WithContext(ctx).Create(&movements).Error; err != nil {
		return fmt.Errorf("failed to create audit movements: %w", err)
	}
	return nil
}
