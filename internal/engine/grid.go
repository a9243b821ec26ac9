package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/voter-segmentation/internal/spatial"
	"github.com/voter-segmentation/pkg/geo"
	"github.com/voter-segmentation/pkg/model"
)

// Segment size targets. A segment should land between AbsoluteMin and
// AbsoluteMax voters; the grower aims for TargetIdeal and refuses
// additions past AbsoluteMax.
const (
	TargetMin   = 100
	TargetIdeal = 115
	TargetMax   = 130
	AbsoluteMin = 90
	AbsoluteMax = 135
)

// Parameters of the adaptive grid.
const (
	hullConvexity   = 0.98
	votersPerFamily = 2.65
	cellsPerSegment = 6.0
	minEdgeMeters   = 50.0
	maxEdgeMeters   = 2000.0
)

// edgeMeters derives the grid cell edge from unit count and boundary
// area so that a segment spans roughly cellsPerSegment cells.
func edgeMeters(unitCount int, areaM2 float64) float64 {
	estSegments := math.Max(1, math.Round(float64(unitCount)*votersPerFamily/float64(TargetIdeal)))
	targetCells := math.Max(estSegments*cellsPerSegment, float64(unitCount)*0.5)
	edge := math.Sqrt(areaM2 / targetCells)

	if edge < minEdgeMeters {
		return minEdgeMeters
	}
	if edge > maxEdgeMeters {
		return maxEdgeMeters
	}
	return edge
}

// cellID keys a cell by its grid indices.
func cellID(row, col int) string {
	return fmt.Sprintf("r%dc%d", row, col)
}

// buildGrid computes the parent boundary hull over the unit centroids
// and tiles it with an adaptive square grid. Cells come back sorted
// north to south then west to east. A degenerate hull (single point or
// collinear units) can tile to nothing; in that case one synthetic
// cell centered on the hull covers the whole scope.
func buildGrid(ctx context.Context, backend spatial.Backend, units []model.AtomicUnit) ([]model.GridCell, *spatial.Hull, error) {
	hull, err := backend.ConcaveHull(ctx, unitPoints(units), hullConvexity)
	if err != nil {
		return nil, nil, err
	}

	edge := edgeMeters(len(units), hull.AreaM2)
	edgeDeg := geo.DegreesForMeters(edge, hull.Centroid[1])

	raw, err := backend.SquareGrid(ctx, edgeDeg, hull.WKT)
	if err != nil {
		return nil, nil, err
	}

	var cells []model.GridCell
	if len(raw) == 0 {
		cells = []model.GridCell{syntheticCell(hull.Centroid, edgeDeg)}
	} else {
		cells = make([]model.GridCell, len(raw))
		for i, c := range raw {
			b := c.Bound()
			cells[i] = model.GridCell{
				ID:       cellID(c.Row, c.Col),
				Row:      c.Row,
				Col:      c.Col,
				Bound:    b,
				Centroid: b.Center(),
			}
		}
	}

	sortCells(cells)
	return cells, hull, nil
}

// syntheticCell covers a scope whose hull is too degenerate to tile.
func syntheticCell(center orb.Point, edgeDeg float64) model.GridCell {
	half := edgeDeg / 2
	b := orb.Bound{
		Min: orb.Point{center[0] - half, center[1] - half},
		Max: orb.Point{center[0] + half, center[1] + half},
	}
	return model.GridCell{ID: cellID(0, 0), Bound: b, Centroid: b.Center()}
}

// sortCells orders cells north to south, then west to east, then by id.
// Every downstream iteration over cells follows this order.
func sortCells(cells []model.GridCell) {
	sort.Slice(cells, func(i, j int) bool {
		a, b := cells[i], cells[j]
		if a.Centroid[1] != b.Centroid[1] {
			return a.Centroid[1] > b.Centroid[1]
		}
		if a.Centroid[0] != b.Centroid[0] {
			return a.Centroid[0] < b.Centroid[0]
		}
		return a.ID < b.ID
	})
}

// neighborMap builds 8-connectivity adjacency from grid indices.
// Neighbor lists follow cell order.
func neighborMap(cells []model.GridCell) map[string][]string {
	idx := make(map[[2]int]string, len(cells))
	for _, c := range cells {
		idx[[2]int{c.Row, c.Col}] = c.ID
	}

	neighbors := make(map[string][]string, len(cells))
	for _, c := range cells {
		var ids []string
		// Walk the 8 surrounding indices in cell order: north row west
		// to east, same row, south row.
		for _, d := range [8][2]int{
			{1, -1}, {1, 0}, {1, 1},
			{0, -1}, {0, 1},
			{-1, -1}, {-1, 0}, {-1, 1},
		} {
			if id, ok := idx[[2]int{c.Row + d[0], c.Col + d[1]}]; ok {
				ids = append(ids, id)
			}
		}
		neighbors[c.ID] = ids
	}
	return neighbors
}
