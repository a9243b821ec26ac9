package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"

	"github.com/voter-segmentation/internal/spatial"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/geo"
	"github.com/voter-segmentation/pkg/model"
)

// geohashPrecision gives tiles of roughly 153x153 meters, a city block.
const geohashPrecision = 7

// hashTile groups the units sharing one geohash cell.
type hashTile struct {
	Hash    string
	UnitIDs []string
	Voters  int
}

// hashUnits buckets units into fixed geohash tiles.
func hashUnits(units []model.AtomicUnit) []hashTile {
	byHash := make(map[string]*hashTile)
	for _, u := range units {
		h := geohash.EncodeWithPrecision(u.Centroid[1], u.Centroid[0], geohashPrecision)
		t := byHash[h]
		if t == nil {
			t = &hashTile{Hash: h}
			byHash[h] = t
		}
		t.UnitIDs = append(t.UnitIDs, u.ID)
		t.Voters += u.Voters
	}

	tiles := make([]hashTile, 0, len(byHash))
	for _, t := range byHash {
		sort.Strings(t.UnitIDs)
		tiles = append(tiles, *t)
	}
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].Hash < tiles[j].Hash })
	return tiles
}

// packTiles walks tiles in lexicographic geohash order and packs them
// into runs of consecutive tiles. A run closes once it reaches
// TargetIdeal voters, or when the next tile would push it past
// AbsoluteMax. A single tile above AbsoluteMax becomes its own
// oversized run. Lexicographic neighbors share hash prefixes, so runs
// stay spatially coherent without any geometry work.
func packTiles(tiles []hashTile) [][]hashTile {
	var runs [][]hashTile
	var cur []hashTile
	voters := 0

	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, cur)
			cur = nil
			voters = 0
		}
	}

	for _, t := range tiles {
		if len(cur) > 0 && voters+t.Voters > AbsoluteMax {
			flush()
		}
		cur = append(cur, t)
		voters += t.Voters
		if voters >= TargetIdeal {
			flush()
		}
	}
	flush()
	return runs
}

// buildGeohashSegments runs the fixed-precision strategy: bucket units
// into geohash-7 tiles, pack consecutive tiles into segments and union
// each segment's tile boxes into its geometry.
func buildGeohashSegments(ctx context.Context, backend spatial.Backend, units []model.AtomicUnit) ([]model.SegmentPlan, error) {
	tiles := hashUnits(units)
	if len(tiles) == 0 {
		return nil, apperrors.New(apperrors.CodeNoUnits, "no units to hash")
	}

	unitByID := make(map[string]model.AtomicUnit, len(units))
	for _, u := range units {
		unitByID[u.ID] = u
	}

	runs := packTiles(tiles)
	plans := make([]model.SegmentPlan, 0, len(runs))
	for i, run := range runs {
		wkts := make([]string, len(run))
		var familyIDs, voterIDs []string
		voters := 0
		for j, t := range run {
			wkts[j] = geo.BoundWKT(tileBound(t.Hash))
			for _, uid := range t.UnitIDs {
				u := unitByID[uid]
				familyIDs = append(familyIDs, uid)
				voterIDs = append(voterIDs, u.VoterIDs...)
				voters += u.Voters
			}
		}
		sort.Strings(familyIDs)
		sort.Strings(voterIDs)

		union, err := backend.UnionPolygons(ctx, wkts)
		if err != nil {
			return nil, err
		}
		if union.Empty {
			return nil, apperrors.Newf(apperrors.CodeEmptyGeometry, "tile run %d unioned to empty geometry", i+1)
		}

		plan := model.SegmentPlan{
			Code:          fmt.Sprintf("SEG-%03d", i+1),
			Algorithm:     model.AlgorithmGeohash,
			GeometryWKT:   union.WKT,
			BoundaryWKT:   union.WKT,
			Centroid:      union.Centroid,
			VoterIDs:      voterIDs,
			FamilyIDs:     familyIDs,
			TotalVoters:   voters,
			TotalFamilies: len(familyIDs),
		}
		if voters > AbsoluteMax {
			plan.Exception = model.ExceptionOversized
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// tileBound returns the bounding box of a geohash cell.
func tileBound(hash string) orb.Bound {
	box := geohash.BoundingBox(hash)
	return orb.Bound{
		Min: orb.Point{box.MinLng, box.MinLat},
		Max: orb.Point{box.MaxLng, box.MaxLat},
	}
}
