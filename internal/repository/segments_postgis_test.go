package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The geometry queries lean on PostGIS functions sqlite does not have,
// so like the lease protocol they run against sqlmock.

func TestGormSegmentRepository_InsertSegments(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormSegmentRepository(db)

	mock.ExpectExec(`INSERT INTO segments`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertSegments(context.Background(), []PlannedSegment{{
		ID:          "seg-1",
		ElectionID:  "el-1",
		NodeID:      "node-1",
		Name:        "SEG-001",
		CentroidWKT: "POINT(78.45 17.35)",
		BoundaryWKT: "POLYGON((0 0,1 0,1 1,0 1,0 0))",
		GeometryWKT: "POLYGON((0 0,1 0,1 1,0 1,0 0))",
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSegmentRepository_DeleteDraft_MembersFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormSegmentRepository(db)

	// Expectations are ordered: member rows must go before segments.
	mock.ExpectExec(`DELETE FROM segment_members`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM segments`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteDraft(context.Background(), "node-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSegmentRepository_OverlappingPairs(t *testing.T) {
	t.Run("ReportsPairs", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewGormSegmentRepository(db)

		mock.ExpectQuery(`ST_Overlaps`).
			WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).
				AddRow("seg-1", "seg-2"))

		pairs, err := repo.OverlappingPairs(context.Background(), "node-1")
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, [2]string{"seg-1", "seg-2"}, pairs[0])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CleanDraft", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewGormSegmentRepository(db)

		mock.ExpectQuery(`ST_Overlaps`).
			WillReturnRows(sqlmock.NewRows([]string{"a", "b"}))

		pairs, err := repo.OverlappingPairs(context.Background(), "node-1")
		require.NoError(t, err)
		assert.Empty(t, pairs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSegmentRepository_InvalidGeometries(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormSegmentRepository(db)

	mock.ExpectQuery(`ST_IsValid`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("seg-3"))

	ids, err := repo.InvalidGeometries(context.Background(), "node-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"seg-3"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSegmentRepository_ListByNode(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormSegmentRepository(db)

	mock.ExpectQuery(`ST_AsGeoJSON`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "election_id", "node_id", "name", "color", "status",
			"centroid_lat", "centroid_lng", "total_voters", "total_families",
			"metadata", "geometry_json", "boundary_json", "area_m2",
		}).AddRow(
			"seg-1", "el-1", "node-1", "SEG-001", "#1f77b4", "draft",
			17.35, 78.45, 115, 43,
			[]byte(`{"node_id":"node-1","version":2,"segment_code":"SEG-001","algorithm":"grid_region_growing"}`),
			`{"type":"Polygon"}`, `{"type":"Polygon"}`, 54321.0,
		))

	segments, err := repo.ListByNode(context.Background(), "node-1", "draft")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "SEG-001", segments[0].Name)
	assert.Equal(t, 115, segments[0].TotalVoters)
	assert.Equal(t, "grid_region_growing", segments[0].Metadata.Algorithm)
	assert.Equal(t, 2, segments[0].Metadata.Version)
	assert.InDelta(t, 54321.0, segments[0].AreaM2, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
