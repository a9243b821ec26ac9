package engine

import (
	"context"
	"strings"

	"github.com/voter-segmentation/internal/repository"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/model"
	"github.com/voter-segmentation/pkg/utils"
)

// validatePlans checks the plan set before anything touches the
// database: no empty segment, voter conservation, no voter in two
// segments. Size violations are not errors; such plans are tagged for
// manual review instead.
func validatePlans(plans []model.SegmentPlan, expectedVoters int, logger utils.Logger) error {
	seen := make(map[string]string)
	total := 0

	for i := range plans {
		p := &plans[i]
		if p.TotalVoters == 0 {
			return apperrors.Newf(apperrors.CodeEmptySegment, "segment %s has no voters", p.Code)
		}
		total += p.TotalVoters

		for _, vid := range p.VoterIDs {
			if prev, ok := seen[vid]; ok {
				return apperrors.Newf(apperrors.CodeDuplicateVoter, "voter %s in both %s and %s", vid, prev, p.Code)
			}
			seen[vid] = p.Code
		}

		switch {
		case p.TotalVoters > AbsoluteMax && p.Exception == "":
			p.Exception = model.ExceptionOversized
		case p.TotalVoters < AbsoluteMin && p.Exception == "":
			p.Exception = model.ExceptionUndersized
		}
		if p.Exception != "" {
			logger.Warn("segment %s is %s with %d voters, flagged for manual review",
				p.Code, p.Exception, p.TotalVoters)
		}
	}

	if total != expectedVoters {
		return apperrors.Newf(apperrors.CodeVoterCountMismatch,
			"segments carry %d voters, scope has %d", total, expectedVoters)
	}
	return nil
}

// validatePersisted re-checks the committed draft against the database:
// every in-scope family is attached, no two segment interiors overlap
// and every geometry is valid. These read what was actually written,
// inside the same transaction, so a violation rolls the whole run back.
// Families in unplaced were skipped for lacking coordinates and do not
// count as unassigned.
func validatePersisted(ctx context.Context, segments repository.SegmentRepository, nodeID string, boothIDs []string, unplaced []string) error {
	unassigned, err := segments.UnassignedFamilyCount(ctx, nodeID, boothIDs, unplaced)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "unassigned family check failed", err)
	}
	if unassigned > 0 {
		return apperrors.Newf(apperrors.CodeUnassignedFamily, "%d in-scope families not assigned to any segment", unassigned)
	}

	pairs, err := segments.OverlappingPairs(ctx, nodeID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "overlap check failed", err)
	}
	if len(pairs) > 0 {
		return apperrors.Newf(apperrors.CodeInteriorOverlap,
			"segments %s and %s have overlapping interiors", pairs[0][0], pairs[0][1])
	}

	invalid, err := segments.InvalidGeometries(ctx, nodeID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "geometry check failed", err)
	}
	if len(invalid) > 0 {
		return apperrors.Newf(apperrors.CodeInvalidGeometry,
			"segments with invalid or empty geometry: %s", strings.Join(invalid, ", "))
	}
	return nil
}
