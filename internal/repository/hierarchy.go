package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/model"
)

// GormHierarchyRepository implements HierarchyRepository using GORM.
type GormHierarchyRepository struct {
	db *gorm.DB
}

// NewGormHierarchyRepository creates a new GormHierarchyRepository.
func NewGormHierarchyRepository(db *gorm.DB) *GormHierarchyRepository {
	return &GormHierarchyRepository{db: db}
}

// GetNode retrieves a hierarchy node by id.
func (r *GormHierarchyRepository) GetNode(ctx context.Context, id string) (*HierarchyNode, error) {
	var node HierarchyNode
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&node).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeUnknownScope, "hierarchy node not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return &node, nil
}

// GetLevel retrieves a hierarchy level by id.
func (r *GormHierarchyRepository) GetLevel(ctx context.Context, id string) (*HierarchyLevel, error) {
	var level HierarchyLevel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeUnknownScope, "hierarchy level not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get level: %w", err)
	}
	return &level, nil
}

// ListNodes retrieves all hierarchy nodes of an election, ordered by id.
func (r *GormHierarchyRepository) ListNodes(ctx context.Context, electionID string) ([]HierarchyNode, error) {
	var nodes []HierarchyNode
	err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("id ASC").
		Find(&nodes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodes, nil
}

// ListLevels retrieves all hierarchy levels of an election, ordered by depth.
func (r *GormHierarchyRepository) ListLevels(ctx context.Context, electionID string) ([]HierarchyLevel, error) {
	var levels []HierarchyLevel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("depth ASC").
		Find(&levels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	return levels, nil
}

// BoothsByNodeIDs retrieves booths attached to the given nodes, ordered by id.
func (r *GormHierarchyRepository) BoothsByNodeIDs(ctx context.Context, nodeIDs []string) ([]Booth, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	var booths []Booth
	err := r.db.WithContext(ctx).
		Where("node_id IN ?", nodeIDs).
		Order("id ASC").
		Find(&booths).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list booths: %w", err)
	}
	return booths, nil
}

// GormVoterRepository implements VoterRepository using GORM.
type GormVoterRepository struct {
	db *gorm.DB
}

// NewGormVoterRepository creates a new GormVoterRepository.
func NewGormVoterRepository(db *gorm.DB) *GormVoterRepository {
	return &GormVoterRepository{db: db}
}

// VotersByBoothIDs retrieves voters in the given booths, ordered by id.
func (r *GormVoterRepository) VotersByBoothIDs(ctx context.Context, boothIDs []string) ([]model.Voter, error) {
	if len(boothIDs) == 0 {
		return nil, nil
	}
	var rows []Voter
	err := r.db.WithContext(ctx).
		Where("booth_id IN ?", boothIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list voters: %w", err)
	}
	voters := make([]model.Voter, 0, len(rows))
	for i := range rows {
		voters = append(voters, rows[i].ToModel())
	}
	return voters, nil
}

// FamiliesByBoothIDs retrieves families with positive member count in
// the given booths, ordered by id.
func (r *GormVoterRepository) FamiliesByBoothIDs(ctx context.Context, boothIDs []string) ([]model.Family, error) {
	if len(boothIDs) == 0 {
		return nil, nil
	}
	var rows []Family
	err := r.db.WithContext(ctx).
		Where("booth_id IN ? AND member_count > 0", boothIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	families := make([]model.Family, 0, len(rows))
	for i := range rows {
		families = append(families, rows[i].ToModel())
	}
	return families, nil
}
