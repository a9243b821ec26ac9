package engine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/voter-segmentation/internal/repository"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/geo"
	"github.com/voter-segmentation/pkg/model"
)

// persistPlans replaces the node's draft segments with the plan set and
// records the run in the audit trail. It returns the run hash computed
// over the membership the database actually holds.
func persistPlans(ctx context.Context, tx *repository.Store, scope *model.Scope, jobID string, version int, plans []model.SegmentPlan) (string, error) {
	if err := tx.Segments.DeleteDraft(ctx, scope.NodeID); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDatabaseError, "failed to clear draft segments", err)
	}

	segments := make([]repository.PlannedSegment, len(plans))
	var members []repository.SegmentMember
	var movements []repository.AuditMovement

	for i, p := range plans {
		meta, err := repository.MarshalJSONField(p.Metadata(scope.NodeID, version))
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeDatabaseError, "failed to marshal segment metadata", err)
		}

		segID := uuid.NewString()
		segments[i] = repository.PlannedSegment{
			ID:            segID,
			ElectionID:    scope.ElectionID,
			NodeID:        scope.NodeID,
			Name:          p.Code,
			Color:         geo.Color(i),
			CentroidLat:   p.Centroid[1],
			CentroidLng:   p.Centroid[0],
			CentroidWKT:   geo.PointWKT(p.Centroid),
			BoundaryWKT:   p.BoundaryWKT,
			GeometryWKT:   p.GeometryWKT,
			TotalVoters:   p.TotalVoters,
			TotalFamilies: p.TotalFamilies,
			Metadata:      meta,
		}

		for _, fid := range p.FamilyIDs {
			members = append(members, repository.SegmentMember{
				ID:        uuid.NewString(),
				SegmentID: segID,
				FamilyID:  fid,
			})
		}

		// The movement snapshot is the segment metadata itself.
		movements = append(movements, repository.AuditMovement{
			EntityType: "segment",
			EntityID:   segID,
			Action:     "create",
			NewData:    meta,
		})
	}

	if err := tx.Segments.InsertSegments(ctx, segments); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDatabaseError, "failed to insert segments", err)
	}
	if err := tx.Segments.InsertMembers(ctx, members); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDatabaseError, "failed to insert segment members", err)
	}

	batch := &repository.AuditBatch{
		ID:           uuid.NewString(),
		ElectionID:   scope.ElectionID,
		BatchType:    "segmentation",
		Description:  fmt.Sprintf("segmentation v%d of node %s (job %s)", version, scope.NodeID, jobID),
		TotalChanges: len(movements),
		Status:       "applied",
	}
	if err := tx.Audit.CreateBatch(ctx, batch); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDatabaseError, "failed to create audit batch", err)
	}
	for i := range movements {
		movements[i].BatchID = batch.ID
	}
	if err := tx.Audit.CreateMovements(ctx, movements); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDatabaseError, "failed to create audit movements", err)
	}

	if err := recordSizeExceptions(ctx, tx.Exceptions, scope, jobID, plans); err != nil {
		return "", err
	}

	familyIDs, err := tx.Segments.DraftFamilyIDs(ctx, scope.NodeID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeDatabaseError, "failed to read back membership", err)
	}
	return runHash(familyIDs), nil
}

// recordSizeExceptions writes one review exception per segment tagged
// oversized or undersized. Size violations never fail the run; the
// rows queue the segments for manual rebalancing.
func recordSizeExceptions(ctx context.Context, exceptions repository.ExceptionRepository, scope *model.Scope, jobID string, plans []model.SegmentPlan) error {
	for i := range plans {
		p := &plans[i]
		if p.Exception == "" {
			continue
		}

		meta, err := repository.MarshalJSONField(map[string]any{
			"job_id":       jobID,
			"segment_code": p.Code,
			"reason":       strings.ToUpper(p.Exception),
			"message":      fmt.Sprintf("segment %s has %d voters", p.Code, p.TotalVoters),
		})
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to marshal exception metadata", err)
		}

		exc := &repository.Exception{
			ID:         uuid.NewString(),
			ElectionID: scope.ElectionID,
			EntityType: "segment",
			Severity:   string(model.SeverityMedium),
			Type:       p.Exception,
			Metadata:   meta,
		}
		if err := exceptions.Create(ctx, exc); err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to record size exception", err)
		}
	}
	return nil
}

// runHash fingerprints a run's membership. Two runs over identical
// inputs hash identically regardless of insertion order.
func runHash(familyIDs []string) string {
	ids := make([]string, len(familyIDs))
	copy(ids, familyIDs)
	sort.Strings(ids)

	sum := md5.Sum([]byte(strings.Join(ids, ",")))
	return hex.EncodeToString(sum[:])
}
