package engine

import (
	"sort"

	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/geo"
	"github.com/voter-segmentation/pkg/model"
)

// assignUnits maps every unit to its nearest grid cell by planar
// distance to the cell rectangle. A unit inside a cell has distance
// zero; ties go to the first cell in cell order, so assignment is
// total and deterministic.
func assignUnits(cells []model.GridCell, units []model.AtomicUnit) (map[string]*model.CellAssignment, error) {
	if len(cells) == 0 {
		return nil, apperrors.New(apperrors.CodeAssignmentFailed, "no grid cells to assign units to")
	}

	assignments := make(map[string]*model.CellAssignment)
	for _, u := range units {
		best := 0
		bestDist := geo.DistanceToBound(u.Centroid, cells[0].Bound)
		for i := 1; i < len(cells); i++ {
			if bestDist == 0 {
				break
			}
			d := geo.DistanceToBound(u.Centroid, cells[i].Bound)
			if d < bestDist {
				best = i
				bestDist = d
			}
		}

		cell := cells[best]
		a := assignments[cell.ID]
		if a == nil {
			a = &model.CellAssignment{CellID: cell.ID, Centroid: cell.Centroid}
			assignments[cell.ID] = a
		}
		a.UnitIDs = append(a.UnitIDs, u.ID)
		a.Voters += u.Voters
	}

	for _, a := range assignments {
		sort.Strings(a.UnitIDs)
	}
	return assignments, nil
}
