package spatial

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/voter-segmentation/pkg/errors"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestPostGISBackend_ConcaveHull(t *testing.T) {
	t.Run("ReturnsLargestComponent", func(t *testing.T) {
		db, mock := setupMockDB(t)
		backend := NewPostGISBackend(db)

		mock.ExpectQuery(`ST_ConcaveHull`).
			WillReturnRows(sqlmock.NewRows([]string{"wkt", "cx", "cy", "area_m2"}).
				AddRow("POLYGON((0 0,1 0,1 1,0 1,0 0))", 78.45, 17.35, 12345.6))

		hull, err := backend.ConcaveHull(context.Background(), []orb.Point{{78.4, 17.3}, {78.5, 17.4}, {78.45, 17.35}}, 0.98)
		require.NoError(t, err)
		assert.Contains(t, hull.WKT, "POLYGON")
		assert.Equal(t, orb.Point{78.45, 17.35}, hull.Centroid)
		assert.InDelta(t, 12345.6, hull.AreaM2, 1e-9)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyPointSet", func(t *testing.T) {
		db, _ := setupMockDB(t)
		backend := NewPostGISBackend(db)

		_, err := backend.ConcaveHull(context.Background(), nil, 0.98)
		assert.Equal(t, apperrors.CodeNoBoundary, apperrors.GetErrorCode(err))
	})
}

func TestPostGISBackend_SquareGrid(t *testing.T) {
	db, mock := setupMockDB(t)
	backend := NewPostGISBackend(db)

	mock.ExpectQuery(`ST_SquareGrid`).
		WillReturnRows(sqlmock.NewRows([]string{"col", "row", "min_x", "min_y", "max_x", "max_y"}).
			AddRow(0, 1, 78.4, 17.35, 78.45, 17.4).
			AddRow(0, 0, 78.4, 17.3, 78.45, 17.35))

	cells, err := backend.SquareGrid(context.Background(), 0.05, "POLYGON((78.4 17.3,78.5 17.3,78.5 17.4,78.4 17.4,78.4 17.3))")
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, 1, cells[0].Row)
	assert.Equal(t, orb.Point{78.4, 17.35}, cells[0].Bound().Min)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostGISBackend_UnionPolygons(t *testing.T) {
	t.Run("UnionsAndRepairs", func(t *testing.T) {
		db, mock := setupMockDB(t)
		backend := NewPostGISBackend(db)

		mock.ExpectQuery(`ST_Buffer\(ST_Union`).
			WillReturnRows(sqlmock.NewRows([]string{"wkt", "cx", "cy", "valid", "empty", "area_m2"}).
				AddRow("POLYGON((0 0,2 0,2 1,0 1,0 0))", 1.0, 0.5, true, false, 999.0))

		res, err := backend.UnionPolygons(context.Background(), []string{
			"POLYGON((0 0,1 0,1 1,0 1,0 0))",
			"POLYGON((1 0,2 0,2 1,1 1,1 0))",
		})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.False(t, res.Empty)
		assert.Equal(t, orb.Point{1.0, 0.5}, res.Centroid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoInput", func(t *testing.T) {
		db, _ := setupMockDB(t)
		backend := NewPostGISBackend(db)

		_, err := backend.UnionPolygons(context.Background(), nil)
		assert.Equal(t, apperrors.CodeGeometryBuildFailed, apperrors.GetErrorCode(err))
	})
}
