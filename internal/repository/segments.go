package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/voter-segmentation/pkg/model"
)

// memberChunkSize bounds the batch size of segment member inserts.
const memberChunkSize = 5000

// GormSegmentRepository implements SegmentRepository using GORM with
// PostGIS expressions for the geometry columns.
type GormSegmentRepository struct {
	db *gorm.DB
}

// NewGormSegmentRepository creates a new GormSegmentRepository.
func NewGormSegmentRepository(db *gorm.DB) *GormSegmentRepository {
	return &GormSegmentRepository{db: db}
}

// DeleteDraft removes draft segments of a node together with their
// members. Members go first so the segment rows never dangle.
func (r *GormSegmentRepository) DeleteDraft(ctx context.Context, nodeID string) error {
	db := r.db.WithContext(ctx)

	err := db.Exec(
		`DELETE FROM segment_members
		 WHERE segment_id IN (SELECT id FROM segments WHERE node_id = ? AND status = 'draft')`,
		nodeID,
	).Error
	if err != nil {
		return fmt.Errorf("failed to delete draft members: %w", err)
	}

	err = db.Exec(`DELETE FROM segments WHERE node_id = ? AND status = 'draft'`, nodeID).Error
	if err != nil {
		return fmt.Errorf("failed to delete draft segments: %w", err)
	}
	return nil
}

// InsertSegments bulk-inserts planned segments. Geometry columns are
// written from WKT through ST_GeomFromText.
func (r *GormSegmentRepository) InsertSegments(ctx context.Context, segments []PlannedSegment) error {
	db := r.db.WithContext(ctx)
	now := time.Now().UTC()

	for _, s := range segments {
		err := db.Exec(
			`INSERT INTO segments
			 (id, election_id, node_id, name, color, status,
			  centroid_lat, centroid_lng, centroid, boundary, geometry,
			  total_voters, total_families, metadata, created_at)
			 VALUES (?, ?, ?, ?, ?, 'draft', ?, ?,
			         ST_GeomFromText(?, 4326), ST_GeomFromText(?, 4326), ST_GeomFromText(?, 4326),
			         ?, ?, ?, ?)`,
			s.ID, s.ElectionID, s.NodeID, s.Name, s.Color,
			s.CentroidLat, s.CentroidLng,
			s.CentroidWKT, s.BoundaryWKT, s.GeometryWKT,
			s.TotalVoters, s.TotalFamilies, s.Metadata, now,
		).Error
		if err != nil {
			return fmt.Errorf("failed to insert segment %s: %w", s.ID, err)
		}
	}
	return nil
}

// InsertMembers bulk-inserts segment members in chunks of 5000.
func (r *GormSegmentRepository) InsertMembers(ctx context.Context, members []SegmentMember) error {
	if len(members) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).CreateInBatches(members, memberChunkSize).Error
	if err != nil {
		return fmt.Errorf("failed to insert segment members: %w", err)
	}
	return nil
}

// DraftFamilyIDs returns the family ids attached to draft segments of a
// node, sorted ascending. The sorted sequence feeds the run hash.
func (r *GormSegmentRepository) DraftFamilyIDs(ctx context.Context, nodeID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT sm.family_id
		 FROM segment_members sm
		 JOIN segments s ON s.id = sm.segment_id
		 WHERE s.node_id = ? AND s.status = 'draft'
		 ORDER BY sm.family_id ASC`,
		nodeID,
	).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list draft family ids: %w", err)
	}
	return ids, nil
}

// UnassignedFamilyCount counts in-scope families with positive member
// count that no draft segment of the node carries. excludeIDs removes
// families the engine skipped for lacking coordinates.
func (r *GormSegmentRepository) UnassignedFamilyCount(ctx context.Context, nodeID string, boothIDs []string, excludeIDs []string) (int, error) {
	if len(boothIDs) == 0 {
		return 0, nil
	}

	query := `SELECT COUNT(*)
		 FROM families f
		 WHERE f.booth_id IN ? AND f.member_count > 0
		   AND NOT EXISTS (
		     SELECT 1 FROM segment_members sm
		     JOIN segments s ON s.id = sm.segment_id
		     WHERE s.node_id = ? AND s.status = 'draft' AND sm.family_id = f.id
		   )`
	args := []interface{}{boothIDs, nodeID}
	if len(excludeIDs) > 0 {
		query += ` AND f.id NOT IN ?`
		args = append(args, excludeIDs)
	}

	var count int
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unassigned families: %w", err)
	}
	return count, nil
}

// OverlappingPairs returns pairs of draft segments of a node whose
// interiors overlap. ST_Overlaps is strict: boundary touching does not
// count.
func (r *GormSegmentRepository) OverlappingPairs(ctx context.Context, nodeID string) ([][2]string, error) {
	type pair struct {
		A string
		B string
	}
	var rows []pair
	err := r.db.WithContext(ctx).Raw(
		`SELECT a.id AS a, b.id AS b
		 FROM segments a
		 JOIN segments b
		   ON a.node_id = b.node_id AND a.id < b.id
		  AND a.status = 'draft' AND b.status = 'draft'
		 WHERE a.node_id = ? AND ST_Overlaps(a.geometry, b.geometry)
		 ORDER BY a.id, b.id`,
		nodeID,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check segment overlaps: %w", err)
	}

	pairs := make([][2]string, len(rows))
	for i, p := range rows {
		pairs[i] = [2]string{p.A, p.B}
	}
	return pairs, nil
}

// InvalidGeometries returns ids of draft segments of a node with
// invalid or empty geometry.
func (r *GormSegmentRepository) InvalidGeometries(ctx context.Context, nodeID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT id FROM segments
		 WHERE node_id = ? AND status = 'draft'
		   AND (geometry IS NULL OR NOT ST_IsValid(geometry) OR ST_IsEmpty(geometry))
		 ORDER BY id`,
		nodeID,
	).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check segment geometries: %w", err)
	}
	return ids, nil
}

// ListByNode retrieves segments of a node with GeoJSON rendering and
// geographic area.
func (r *GormSegmentRepository) ListByNode(ctx context.Context, nodeID string, status string) ([]model.Segment, error) {
	type row struct {
		ID            string
		ElectionID    string
		NodeID        string
		Name          string
		Color         string
		Status        string
		CentroidLat   float64
		CentroidLng   float64
		TotalVoters   int
		TotalFamilies int
		Metadata      JSONField
		GeometryJSON  string
		BoundaryJSON  string
		AreaM2        float64
	}

	var rows []row
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, election_id, node_id, name, color, status,
		        centroid_lat, centroid_lng, total_voters, total_families, metadata,
		        ST_AsGeoJSON(geometry) AS geometry_json,
		        ST_AsGeoJSON(boundary) AS boundary_json,
		        ST_Area(geometry::geography) AS area_m2
		 FROM segments
		 WHERE node_id = ? AND status = ?
		 ORDER BY name ASC`,
		nodeID, status,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}

	segments := make([]model.Segment, len(rows))
	for i, rw := range rows {
		seg := model.Segment{
			ID:            rw.ID,
			ElectionID:    rw.ElectionID,
			NodeID:        rw.NodeID,
			Name:          rw.Name,
			Color:         rw.Color,
			Status:        rw.Status,
			CentroidLat:   rw.CentroidLat,
			CentroidLng:   rw.CentroidLng,
			TotalVoters:   rw.TotalVoters,
			TotalFamilies: rw.TotalFamilies,
			GeometryJSON:  rw.GeometryJSON,
			BoundaryJSON:  rw.BoundaryJSON,
			AreaM2:        rw.AreaM2,
		}
		if rw.Metadata != nil {
			_ = json.Unmarshal(rw.Metadata, &seg.Metadata)
		}
		segments[i] = seg
	}
	return segments, nil
}
