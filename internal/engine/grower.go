package engine

import (
	"fmt"
	"sort"

	"github.com/voter-segmentation/pkg/geo"
	"github.com/voter-segmentation/pkg/model"
	"github.com/voter-segmentation/pkg/utils"
)

// growRegions partitions the grid into contiguous regions of cells.
//
// Populated cells are consumed in cell order. A region starts from a
// seed cell and grows breadth-first through 8-connected populated
// neighbors until it reaches TargetIdeal voters, never accepting a
// cell that would push it past AbsoluteMax. Cells whose own assignment
// already exceeds AbsoluteMax become single-cell oversized regions.
// Undersized regions then merge into the adjacent region that least
// exceeds TargetMax, smallest region first. Finally every empty cell
// joins the region whose seed is closest, so the regions tile the
// whole grid wall to wall. Empty cells with no path to a populated
// cell stay unassigned and are reported through the logger.
func growRegions(cells []model.GridCell, assignments map[string]*model.CellAssignment, neighbors map[string][]string, logger utils.Logger) []model.Region {
	cellByID := make(map[string]model.GridCell, len(cells))
	for _, c := range cells {
		cellByID[c.ID] = c
	}

	voterCount := func(id string) int {
		if a := assignments[id]; a != nil {
			return a.Voters
		}
		return 0
	}
	oversizedCell := func(id string) bool { return voterCount(id) > AbsoluteMax }

	var regions []*model.Region
	regionOf := make(map[string]*model.Region)

	claim := func(r *model.Region, cid string) {
		r.CellIDs = append(r.CellIDs, cid)
		r.Voters += voterCount(cid)
		regionOf[cid] = r
	}

	newRegion := func(seed string) *model.Region {
		r := &model.Region{
			ID:       fmt.Sprintf("R%03d", len(regions)+1),
			SeedCell: seed,
		}
		regions = append(regions, r)
		claim(r, seed)
		return r
	}

	// Growth phase. Oversized cells are skipped here and isolated below.
	for _, c := range cells {
		if assignments[c.ID] == nil || regionOf[c.ID] != nil || oversizedCell(c.ID) {
			continue
		}

		r := newRegion(c.ID)
		queue := []string{c.ID}
		for len(queue) > 0 && r.Voters < TargetIdeal {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range neighbors[cur] {
				if r.Voters >= TargetIdeal {
					break
				}
				if assignments[nb] == nil || regionOf[nb] != nil || oversizedCell(nb) {
					continue
				}
				if r.Voters+voterCount(nb) > AbsoluteMax {
					continue
				}
				claim(r, nb)
				queue = append(queue, nb)
			}
		}
	}

	// Oversized isolation: one region per oversized cell.
	for _, c := range cells {
		if assignments[c.ID] == nil || regionOf[c.ID] != nil {
			continue
		}
		r := newRegion(c.ID)
		r.Oversized = true
	}

	mergeUndersized(regions, regionOf, neighbors)
	if leftover := fillEmptyCells(cells, cellByID, regions, regionOf, neighbors); leftover > 0 {
		logger.Warn("%d empty cells are disconnected from every region and stay unassigned", leftover)
	}

	out := make([]model.Region, 0, len(regions))
	for _, r := range regions {
		if len(r.CellIDs) == 0 {
			continue
		}
		sort.Strings(r.CellIDs)
		out = append(out, *r)
	}
	return out
}

// mergeUndersized folds regions below AbsoluteMin into an adjacent
// region, smallest first. The target is the adjacent region whose
// post-merge size least exceeds TargetMax, ties broken by region id.
// A region with no populated neighbor region stays undersized and is
// tagged at validation.
func mergeUndersized(regions []*model.Region, regionOf map[string]*model.Region, neighbors map[string][]string) {
	for {
		var small []*model.Region
		for _, r := range regions {
			if len(r.CellIDs) > 0 && !r.Oversized && r.Voters > 0 && r.Voters < AbsoluteMin {
				small = append(small, r)
			}
		}
		sort.Slice(small, func(i, j int) bool {
			if small[i].Voters != small[j].Voters {
				return small[i].Voters < small[j].Voters
			}
			return small[i].ID < small[j].ID
		})

		merged := false
		for _, r := range small {
			if len(r.CellIDs) == 0 || r.Voters >= AbsoluteMin {
				continue
			}

			target := pickMergeTarget(r, regionOf, neighbors)
			if target == nil {
				continue
			}

			for _, cid := range r.CellIDs {
				target.CellIDs = append(target.CellIDs, cid)
				regionOf[cid] = target
			}
			target.Voters += r.Voters
			r.CellIDs = nil
			r.Voters = 0
			merged = true
		}
		if !merged {
			return
		}
	}
}

func pickMergeTarget(r *model.Region, regionOf map[string]*model.Region, neighbors map[string][]string) *model.Region {
	var target *model.Region
	bestOver := 0
	for _, cid := range r.CellIDs {
		for _, nb := range neighbors[cid] {
			cand := regionOf[nb]
			if cand == nil || cand == r || cand.Oversized || len(cand.CellIDs) == 0 {
				continue
			}
			over := cand.Voters + r.Voters - TargetMax
			if over < 0 {
				over = 0
			}
			if target == nil || over < bestOver || (over == bestOver && cand.ID < target.ID) {
				target = cand
				bestOver = over
			}
		}
	}
	return target
}

// fillEmptyCells assigns every unclaimed cell to the region whose seed
// cell is closest, ties broken by region id. Each pass is computed
// against a frozen view and applied at once, then repeated, so the
// fill front advances one ring at a time regardless of cell order.
// Returns the number of cells no pass could reach.
func fillEmptyCells(cells []model.GridCell, cellByID map[string]model.GridCell, regions []*model.Region, regionOf map[string]*model.Region, neighbors map[string][]string) int {
	leftover := func() int {
		n := 0
		for _, c := range cells {
			if regionOf[c.ID] == nil {
				n++
			}
		}
		return n
	}

	if len(regions) == 0 {
		return leftover()
	}

	for {
		type fill struct {
			cellID string
			region *model.Region
		}
		var fills []fill

		for _, c := range cells {
			if regionOf[c.ID] != nil {
				continue
			}

			var best *model.Region
			bestDist := 0.0
			for _, nb := range neighbors[c.ID] {
				cand := regionOf[nb]
				if cand == nil {
					continue
				}
				d := geo.Distance(c.Centroid, cellByID[cand.SeedCell].Centroid)
				if best == nil || d < bestDist || (d == bestDist && cand.ID < best.ID) {
					best = cand
					bestDist = d
				}
			}
			if best != nil {
				fills = append(fills, fill{cellID: c.ID, region: best})
			}
		}

		if len(fills) == 0 {
			return leftover()
		}
		for _, f := range fills {
			f.region.CellIDs = append(f.region.CellIDs, f.cellID)
			regionOf[f.cellID] = f.region
		}
	}
}
