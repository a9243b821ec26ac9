package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voter-segmentation/internal/spatial"
	"github.com/voter-segmentation/pkg/model"
)

func TestEdgeMeters(t *testing.T) {
	tests := []struct {
		name      string
		unitCount int
		areaM2    float64
		want      float64
	}{
		{
			// 500 units -> ~12 segments -> 72 cells over 1 km2.
			name:      "TypicalNeighborhood",
			unitCount: 500,
			areaM2:    1e6,
			want:      63.245553203,
		},
		{
			name:      "TinyAreaClampsToMinimum",
			unitCount: 100,
			areaM2:    100,
			want:      minEdgeMeters,
		},
		{
			name:      "HugeSparseAreaClampsToMaximum",
			unitCount: 10,
			areaM2:    1e12,
			want:      maxEdgeMeters,
		},
		{
			name:      "ZeroAreaClampsToMinimum",
			unitCount: 50,
			areaM2:    0,
			want:      minEdgeMeters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, edgeMeters(tt.unitCount, tt.areaM2), 1e-6)
		})
	}
}

func TestBuildGrid(t *testing.T) {
	t.Run("TilesHullAndSorts", func(t *testing.T) {
		backend := &fakeBackend{
			areaM2: 1e6,
			gridFn: func(edgeDeg float64, boundaryWKT string) ([]spatial.Cell, error) {
				return []spatial.Cell{
					{Row: 0, Col: 1, MinX: 1, MinY: 0, MaxX: 2, MaxY: 1},
					{Row: 1, Col: 0, MinX: 0, MinY: 1, MaxX: 1, MaxY: 2},
					{Row: 0, Col: 0, MinX: 0, MinY: 0, MaxX: 1, MaxY: 1},
				}, nil
			},
		}
		units := clusterUnits("fam", 20, 5, 0.5, 0.5)

		cells, hull, err := buildGrid(context.Background(), backend, units)
		require.NoError(t, err)
		require.NotNil(t, hull)

		require.Len(t, cells, 3)
		// North first, then west to east.
		assert.Equal(t, cellID(1, 0), cells[0].ID)
		assert.Equal(t, cellID(0, 0), cells[1].ID)
		assert.Equal(t, cellID(0, 1), cells[2].ID)
	})

	t.Run("DegenerateHullGetsSyntheticCell", func(t *testing.T) {
		// A single point hulls to a point; the grid tiles nothing.
		backend := &fakeBackend{areaM2: 0}
		units := []model.AtomicUnit{unitAt("only", 5, 78.4, 17.3)}

		cells, _, err := buildGrid(context.Background(), backend, units)
		require.NoError(t, err)

		require.Len(t, cells, 1)
		b := cells[0].Bound
		assert.True(t, b.Min[0] < 78.4 && 78.4 < b.Max[0])
		assert.True(t, b.Min[1] < 17.3 && 17.3 < b.Max[1])
	})

	t.Run("NoUnitsMeansNoBoundary", func(t *testing.T) {
		backend := &fakeBackend{}

		_, _, err := buildGrid(context.Background(), backend, nil)
		assert.Error(t, err)
	})
}
