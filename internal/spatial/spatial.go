// Package spatial defines the spatial backend boundary of the
// segmentation engine. The deterministic partitioning logic is pure Go;
// the heavy computational geometry (concave hull, grid tiling, polygon
// union, validity predicates) is delegated to PostGIS through this
// interface.
package spatial

import (
	"context"

	"github.com/paulmach/orb"
)

// Hull is a parent boundary computed over unit centroids.
type Hull struct {
	WKT      string
	Centroid orb.Point
	AreaM2   float64
}

// Cell is one square tile of a generated grid, identified by its grid
// indices with an axis-aligned extent in degrees.
type Cell struct {
	Row  int
	Col  int
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Bound returns the cell extent as an orb.Bound.
func (c Cell) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{c.MinX, c.MinY}, Max: orb.Point{c.MaxX, c.MaxY}}
}

// UnionResult is the repaired union of a set of polygons, reduced to
// its largest part.
type UnionResult struct {
	WKT      string
	Centroid orb.Point
	Valid    bool
	Empty    bool
	AreaM2   float64
}

// Backend is the set of spatial primitives the engine depends on.
type Backend interface {
	// ConcaveHull computes the concave hull of a point set with the
	// given convexity target and returns its largest component.
	ConcaveHull(ctx context.Context, points []orb.Point, pctConvex float64) (*Hull, error)

	// SquareGrid tiles the boundary geometry with square cells of the
	// given edge length in degrees, keeping cells that intersect the
	// boundary. Cells come back ordered row-major north to south.
	SquareGrid(ctx context.Context, edgeDeg float64, boundaryWKT string) ([]Cell, error)

	// UnionPolygons unions the given polygons, repairs the result with
	// a zero-width buffer and returns the largest part.
	UnionPolygons(ctx context.Context, wkts []string) (*UnionResult, error)

	// AsGeoJSON renders a WKT geometry as GeoJSON.
	AsGeoJSON(ctx context.Context, wkt string) (string, error)
}
