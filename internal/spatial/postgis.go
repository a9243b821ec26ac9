package spatial

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"gorm.io/gorm"

	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/geo"
)

// PostGISBackend implements Backend over a PostGIS connection. When
// used inside the engine it is bound to the engine's transaction handle.
type PostGISBackend struct {
	db *gorm.DB
}

// NewPostGISBackend creates a new PostGISBackend.
func NewPostGISBackend(db *gorm.DB) *PostGISBackend {
	return &PostGISBackend{db: db}
}

// ConcaveHull computes the concave hull of a point set. The hull of a
// degenerate point set may be a point or a line; the largest component
// is returned regardless of type so the grid can still tile its extent.
func (b *PostGISBackend) ConcaveHull(ctx context.Context, points []orb.Point, pctConvex float64) (*Hull, error) {
	if len(points) == 0 {
		return nil, apperrors.ErrNoBoundary
	}

	type row struct {
		WKT    string
		Cx     float64
		Cy     float64
		AreaM2 float64
	}
	var r row
	res := b.db.WithContext(ctx).Raw(
		`WITH pts AS (SELECT ST_GeomFromText(?, 4326) AS g),
		      hull AS (SELECT ST_ConcaveHull(g, ?) AS h FROM pts),
		      parts AS (SELECT (ST_Dump(h)).geom AS p FROM hull)
		 SELECT ST_AsText(p) AS wkt,
		        ST_X(ST_Centroid(p)) AS cx, ST_Y(ST_Centroid(p)) AS cy,
		        ST_Area(p::geography) AS area_m2
		 FROM parts
		 ORDER BY ST_Area(p) DESC, ST_AsText(p) ASC
		 LIMIT 1`,
		geo.MultiPointWKT(points), pctConvex,
	).Scan(&r)
	if res.Error != nil {
		return nil, fmt.Errorf("concave hull failed: %w", res.Error)
	}
	if res.RowsAffected == 0 || r.WKT == "" {
		return nil, apperrors.ErrNoBoundary
	}
	return &Hull{WKT: r.WKT, Centroid: orb.Point{r.Cx, r.Cy}, AreaM2: r.AreaM2}, nil
}

// SquareGrid tiles the boundary geometry with square cells, keeping
// cells that intersect it, ordered north to south then west to east.
func (b *PostGISBackend) SquareGrid(ctx context.Context, edgeDeg float64, boundaryWKT string) ([]Cell, error) {
	type row struct {
		Col  int
		Row  int
		MinX float64
		MinY float64
		MaxX float64
		MaxY float64
	}
	var rows []row
	err := b.db.WithContext(ctx).Raw(
		`WITH b AS (SELECT ST_GeomFromText(?, 4326) AS g)
		 SELECT sq.i AS col, sq.j AS row,
		        ST_XMin(sq.geom) AS min_x, ST_YMin(sq.geom) AS min_y,
		        ST_XMax(sq.geom) AS max_x, ST_YMax(sq.geom) AS max_y
		 FROM b, ST_SquareGrid(?, b.g) AS sq
		 WHERE ST_Intersects(sq.geom, b.g)
		 ORDER BY sq.j DESC, sq.i ASC`,
		boundaryWKT, edgeDeg,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("square grid failed: %w", err)
	}

	cells := make([]Cell, len(rows))
	for i, r := range rows {
		cells[i] = Cell{Row: r.Row, Col: r.Col, MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MaxY}
	}
	return cells, nil
}

// UnionPolygons unions the given polygons, snaps with a zero-width
// buffer and returns the largest part.
func (b *PostGISBackend) UnionPolygons(ctx context.Context, wkts []string) (*UnionResult, error) {
	if len(wkts) == 0 {
		return nil, apperrors.New(apperrors.CodeGeometryBuildFailed, "union of zero polygons")
	}

	placeholders := make([]string, len(wkts))
	args := make([]interface{}, len(wkts))
	for i, w := range wkts {
		placeholders[i] = "ST_GeomFromText(?, 4326)"
		args[i] = w
	}

	query := fmt.Sprintf(
		`WITH u AS (SELECT ST_Buffer(ST_Union(ARRAY[%s]), 0.0) AS g),
		      parts AS (SELECT (ST_Dump(g)).geom AS p FROM u)
		 SELECT ST_AsText(p) AS wkt,
		        ST_X(ST_Centroid(p)) AS cx, ST_Y(ST_Centroid(p)) AS cy,
		        ST_IsValid(p) AS valid, ST_IsEmpty(p) AS empty,
		        ST_Area(p::geography) AS area_m2
		 FROM parts
		 ORDER BY ST_Area(p) DESC
		 LIMIT 1`,
		strings.Join(placeholders, ","),
	)

	type row struct {
		WKT    string
		Cx     float64
		Cy     float64
		Valid  bool
		Empty  bool
		AreaM2 float64
	}
	var r row
	res := b.db.WithContext(ctx).Raw(query, args...).Scan(&r)
	if res.Error != nil {
		return nil, fmt.Errorf("polygon union failed: %w", res.Error)
	}
	if res.RowsAffected == 0 || r.WKT == "" {
		return nil, apperrors.New(apperrors.CodeGeometryBuildFailed, "union produced no geometry")
	}

	return &UnionResult{
		WKT:      r.WKT,
		Centroid: orb.Point{r.Cx, r.Cy},
		Valid:    r.Valid,
		Empty:    r.Empty,
		AreaM2:   r.AreaM2,
	}, nil
}

// AsGeoJSON renders a WKT geometry as GeoJSON.
func (b *PostGISBackend) AsGeoJSON(ctx context.Context, wkt string) (string, error) {
	var out string
	err := b.db.WithContext(ctx).Raw(
		`SELECT ST_AsGeoJSON(ST_GeomFromText(?, 4326))`, wkt,
	).Scan(&out).Error
	if err != nil {
		return "", fmt.Errorf("geojson render failed: %w", err)
	}
	return out, nil
}
