package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/voter-segmentation/internal/repository"
	"github.com/voter-segmentation/internal/spatial"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/geo"
	"github.com/voter-segmentation/pkg/model"
)

// fakeBackend is a pure-Go stand-in for the PostGIS backend. Hulls are
// bounding boxes, grids are regular tilings of the hull and unions
// return the bounding box of the inputs. Good enough for exercising
// the deterministic pipeline without a database.
type fakeBackend struct {
	areaM2 float64

	// gridFn overrides SquareGrid when set.
	gridFn func(edgeDeg float64, boundaryWKT string) ([]spatial.Cell, error)
}

func (f *fakeBackend) ConcaveHull(_ context.Context, points []orb.Point, _ float64) (*spatial.Hull, error) {
	if len(points) == 0 {
		return nil, apperrors.ErrNoBoundary
	}
	b := orb.MultiPoint(points).Bound()
	return &spatial.Hull{WKT: geo.BoundWKT(b), Centroid: b.Center(), AreaM2: f.areaM2}, nil
}

func (f *fakeBackend) SquareGrid(_ context.Context, edgeDeg float64, boundaryWKT string) ([]spatial.Cell, error) {
	if f.gridFn != nil {
		return f.gridFn(edgeDeg, boundaryWKT)
	}
	return nil, nil
}

func (f *fakeBackend) UnionPolygons(_ context.Context, wkts []string) (*spatial.UnionResult, error) {
	if len(wkts) == 0 {
		return nil, apperrors.New(apperrors.CodeGeometryBuildFailed, "union of zero polygons")
	}
	return &spatial.UnionResult{
		WKT:      wkts[0],
		Centroid: orb.Point{0, 0},
		Valid:    true,
		AreaM2:   1,
	}, nil
}

func (f *fakeBackend) AsGeoJSON(_ context.Context, wkt string) (string, error) {
	return fmt.Sprintf(`{"wkt":%q}`, wkt), nil
}

// regularGrid builds an n x m grid of unit-degree cells with the
// south-west corner at the origin.
func regularGrid(rows, cols int) []model.GridCell {
	cells := make([]model.GridCell, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b := orb.Bound{
				Min: orb.Point{float64(c), float64(r)},
				Max: orb.Point{float64(c + 1), float64(r + 1)},
			}
			cells = append(cells, model.GridCell{
				ID:       cellID(r, c),
				Row:      r,
				Col:      c,
				Bound:    b,
				Centroid: b.Center(),
			})
		}
	}
	sortCells(cells)
	return cells
}

// unitAt builds a single-family unit of n voters at (lng, lat).
func unitAt(id string, n int, lng, lat float64) model.AtomicUnit {
	voterIDs := make([]string, n)
	for i := range voterIDs {
		voterIDs[i] = fmt.Sprintf("%s-v%02d", id, i)
	}
	return model.AtomicUnit{ID: id, VoterIDs: voterIDs, Voters: n, Centroid: orb.Point{lng, lat}}
}

// clusterUnits spreads count units of votersEach around a center.
func clusterUnits(prefix string, count, votersEach int, lng, lat float64) []model.AtomicUnit {
	units := make([]model.AtomicUnit, count)
	for i := range units {
		angle := float64(i) * 2 * math.Pi / float64(count)
		units[i] = unitAt(
			fmt.Sprintf("%s-%03d", prefix, i),
			votersEach,
			lng+0.001*math.Cos(angle),
			lat+0.001*math.Sin(angle),
		)
	}
	return units
}

func floatPtr(f float64) *float64 { return &f }

// fakeSegmentStore records writes and serves the post-run checks from
// canned answers.
type fakeSegmentStore struct {
	deletedNodes []string
	segments     []repository.PlannedSegment
	members      []repository.SegmentMember

	unassigned   int
	lastExcluded []string
	overlaps     [][2]string
	invalid      []string
}

func (f *fakeSegmentStore) DeleteDraft(_ context.Context, nodeID string) error {
	f.deletedNodes = append(f.deletedNodes, nodeID)
	return nil
}

func (f *fakeSegmentStore) InsertSegments(_ context.Context, segments []repository.PlannedSegment) error {
	f.segments = append(f.segments, segments...)
	return nil
}

func (f *fakeSegmentStore) InsertMembers(_ context.Context, members []repository.SegmentMember) error {
	f.members = append(f.members, members...)
	return nil
}

func (f *fakeSegmentStore) DraftFamilyIDs(_ context.Context, _ string) ([]string, error) {
	ids := make([]string, 0, len(f.members))
	for _, m := range f.members {
		ids = append(ids, m.FamilyID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeSegmentStore) UnassignedFamilyCount(_ context.Context, _ string, _ []string, excludeIDs []string) (int, error) {
	f.lastExcluded = excludeIDs
	return f.unassigned, nil
}

func (f *fakeSegmentStore) OverlappingPairs(_ context.Context, _ string) ([][2]string, error) {
	return f.overlaps, nil
}

func (f *fakeSegmentStore) InvalidGeometries(_ context.Context, _ string) ([]string, error) {
	return f.invalid, nil
}

func (f *fakeSegmentStore) ListByNode(_ context.Context, _ string, _ string) ([]model.Segment, error) {
	return nil, nil
}

type fakeAudit struct {
	batches   []*repository.AuditBatch
	movements []repository.AuditMovement
}

func (f *fakeAudit) CreateBatch(_ context.Context, batch *repository.AuditBatch) error {
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeAudit) CreateMovements(_ context.Context, movements []repository.AuditMovement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

type fakeExceptions struct {
	rows []*repository.Exception
}

func (f *fakeExceptions) Create(_ context.Context, exc *repository.Exception) error {
	f.rows = append(f.rows, exc)
	return nil
}

func (f *fakeExceptions) ListByJobID(_ context.Context, _ string) ([]repository.Exception, error) {
	return nil, nil
}
