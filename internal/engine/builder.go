package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/voter-segmentation/internal/spatial"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/geo"
	"github.com/voter-segmentation/pkg/model"
)

// buildSegments turns grown regions into segment plans. Each region's
// cells are unioned into one polygon; the members are the units of its
// populated cells. Segment codes number the regions in creation order.
func buildSegments(ctx context.Context, backend spatial.Backend, regions []model.Region, cells []model.GridCell, assignments map[string]*model.CellAssignment, units []model.AtomicUnit) ([]model.SegmentPlan, error) {
	cellByID := make(map[string]model.GridCell, len(cells))
	for _, c := range cells {
		cellByID[c.ID] = c
	}
	unitByID := make(map[string]model.AtomicUnit, len(units))
	for _, u := range units {
		unitByID[u.ID] = u
	}

	plans := make([]model.SegmentPlan, 0, len(regions))
	for i, r := range regions {
		wkts := make([]string, 0, len(r.CellIDs))
		for _, cid := range r.CellIDs {
			wkts = append(wkts, geo.BoundWKT(cellByID[cid].Bound))
		}

		union, err := backend.UnionPolygons(ctx, wkts)
		if err != nil {
			return nil, err
		}
		if union.Empty {
			return nil, apperrors.Newf(apperrors.CodeEmptyGeometry, "region %s unioned to empty geometry", r.ID)
		}

		var familyIDs, voterIDs []string
		voters := 0
		for _, cid := range r.CellIDs {
			a := assignments[cid]
			if a == nil {
				continue
			}
			for _, uid := range a.UnitIDs {
				u := unitByID[uid]
				familyIDs = append(familyIDs, uid)
				voterIDs = append(voterIDs, u.VoterIDs...)
				voters += u.Voters
			}
		}
		sort.Strings(familyIDs)
		sort.Strings(voterIDs)

		plan := model.SegmentPlan{
			Code:          fmt.Sprintf("SEG-%03d", i+1),
			Algorithm:     model.AlgorithmGrid,
			GeometryWKT:   union.WKT,
			BoundaryWKT:   union.WKT,
			Centroid:      union.Centroid,
			VoterIDs:      voterIDs,
			FamilyIDs:     familyIDs,
			TotalVoters:   voters,
			TotalFamilies: len(familyIDs),
		}
		if r.Oversized {
			plan.Exception = model.ExceptionOversized
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
