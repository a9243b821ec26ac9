package engine

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voter-segmentation/pkg/model"
	"github.com/voter-segmentation/pkg/utils"
)

func assignmentsFor(t *testing.T, cells []model.GridCell, units []model.AtomicUnit) map[string]*model.CellAssignment {
	t.Helper()
	assignments, err := assignUnits(cells, units)
	require.NoError(t, err)
	return assignments
}

func regionVoterTotal(regions []model.Region) int {
	total := 0
	for _, r := range regions {
		total += r.Voters
	}
	return total
}

func TestGrowRegions(t *testing.T) {
	t.Run("SingleClusterBecomesOneRegion", func(t *testing.T) {
		cells := regularGrid(3, 3)
		// 115 voters spread over the center cell's neighborhood.
		units := clusterUnits("fam", 23, 5, 1.5, 1.5)
		assignments := assignmentsFor(t, cells, units)

		regions := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})

		require.Len(t, regions, 1)
		assert.Equal(t, 115, regions[0].Voters)
		assert.False(t, regions[0].Oversized)
		// Wall-to-wall: every cell belongs to the region.
		assert.Len(t, regions[0].CellIDs, 9)
	})

	t.Run("TwoDistantClustersBecomeTwoRegions", func(t *testing.T) {
		cells := regularGrid(1, 7)
		left := clusterUnits("west", 23, 5, 0.5, 0.5)
		right := clusterUnits("east", 23, 5, 6.5, 0.5)
		assignments := assignmentsFor(t, cells, append(left, right...))

		regions := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})

		require.Len(t, regions, 2)
		assert.Equal(t, 115, regions[0].Voters)
		assert.Equal(t, 115, regions[1].Voters)
		assert.Equal(t, 230, regionVoterTotal(regions))

		covered := 0
		for _, r := range regions {
			covered += len(r.CellIDs)
		}
		assert.Equal(t, 7, covered, "empty cells between the clusters must be filled")
	})

	t.Run("GrowthStopsAtAbsoluteMax", func(t *testing.T) {
		cells := regularGrid(1, 6)
		var units []model.AtomicUnit
		// 6 cells x 45 voters: a fourth cell would push a region to 180.
		for _, c := range cells {
			units = append(units, unitAt("fam-"+c.ID, 45, c.Centroid[0], c.Centroid[1]))
		}
		assignments := assignmentsFor(t, cells, units)

		regions := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})

		require.Len(t, regions, 2)
		for _, r := range regions {
			assert.LessOrEqual(t, r.Voters, AbsoluteMax, "region %s", r.ID)
		}
		assert.Equal(t, 270, regionVoterTotal(regions))
	})

	t.Run("OversizedCellIsIsolated", func(t *testing.T) {
		cells := regularGrid(1, 3)
		units := []model.AtomicUnit{
			unitAt("big", 150, 1.5, 0.5), // indivisible family above AbsoluteMax
			unitAt("a", 100, 0.5, 0.5),
		}
		assignments := assignmentsFor(t, cells, units)

		regions := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})

		var oversized *model.Region
		for i := range regions {
			if regions[i].Oversized {
				oversized = &regions[i]
			}
		}
		require.NotNil(t, oversized)
		assert.Equal(t, 150, oversized.Voters)
	})

	t.Run("UndersizedRegionMergesIntoNeighbor", func(t *testing.T) {
		cells := regularGrid(1, 2)
		// The first region reaches TargetIdeal on its seed alone, so
		// the second cell is left behind as a 20-voter region and has
		// to be folded back in by the merge pass.
		units := []model.AtomicUnit{
			unitAt("a", 115, 0.5, 0.5),
			unitAt("b", 20, 1.5, 0.5),
		}
		assignments := assignmentsFor(t, cells, units)

		regions := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})

		require.Len(t, regions, 1)
		assert.Equal(t, 135, regions[0].Voters)
		assert.Len(t, regions[0].CellIDs, 2)
	})

	t.Run("IsolatedUndersizedRegionSurvives", func(t *testing.T) {
		// Two cells far apart with a gap of nothing between them is
		// still one connected grid, so use a 1x1 grid with few voters.
		cells := regularGrid(1, 1)
		units := []model.AtomicUnit{unitAt("only", 30, 0.5, 0.5)}
		assignments := assignmentsFor(t, cells, units)

		regions := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})

		require.Len(t, regions, 1)
		assert.Equal(t, 30, regions[0].Voters)
	})

	t.Run("DisconnectedEmptyCellStaysUnassigned", func(t *testing.T) {
		// Two cells with a four-cell gap between them share no edge or
		// corner, so the empty one is unreachable from the region.
		near := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
		far := orb.Bound{Min: orb.Point{5, 0}, Max: orb.Point{6, 1}}
		cells := []model.GridCell{
			{ID: cellID(0, 0), Row: 0, Col: 0, Bound: near, Centroid: near.Center()},
			{ID: cellID(0, 5), Row: 0, Col: 5, Bound: far, Centroid: far.Center()},
		}
		sortCells(cells)
		units := []model.AtomicUnit{unitAt("a", 100, 0.5, 0.5)}
		assignments := assignmentsFor(t, cells, units)

		regions := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})

		require.Len(t, regions, 1)
		assert.Equal(t, []string{cellID(0, 0)}, regions[0].CellIDs)
	})

	t.Run("Deterministic", func(t *testing.T) {
		cells := regularGrid(4, 4)
		var units []model.AtomicUnit
		for i, c := range cells {
			units = append(units, unitAt("fam-"+c.ID, 10+i%7, c.Centroid[0], c.Centroid[1]))
		}
		assignments := assignmentsFor(t, cells, units)

		first := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})
		second := growRegions(cells, assignments, neighborMap(cells), &utils.NullLogger{})

		assert.Equal(t, first, second)
	})
}

func TestNeighborMap(t *testing.T) {
	cells := regularGrid(3, 3)
	neighbors := neighborMap(cells)

	assert.Len(t, neighbors[cellID(1, 1)], 8, "interior cell")
	assert.Len(t, neighbors[cellID(0, 0)], 3, "corner cell")
	assert.Len(t, neighbors[cellID(0, 1)], 5, "edge cell")
	assert.NotContains(t, neighbors[cellID(0, 0)], cellID(0, 0))
}
