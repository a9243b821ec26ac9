package model

import "github.com/paulmach/orb"

// Segmentation algorithm tags recorded in segment metadata.
const (
	AlgorithmGrid    = "grid_region_growing"
	AlgorithmGeohash = "geohash_fixed_precision_7"
)

// Exception tags for out-of-band segments.
const (
	ExceptionOversized  = "oversized"
	ExceptionUndersized = "undersized"
)

// AtomicUnit is a family prepared for spatial grouping: an indivisible
// set of voters with a centroid.
type AtomicUnit struct {
	ID       string   // family id
	VoterIDs []string // sorted for determinism
	Voters   int
	Centroid orb.Point // (lng, lat)
}

// GridCell is one square tile of the adaptive grid.
type GridCell struct {
	ID       string
	Row      int
	Col      int
	Bound    orb.Bound
	Centroid orb.Point
}

// CellAssignment maps a populated cell to its units.
type CellAssignment struct {
	CellID   string
	UnitIDs  []string // sorted
	Voters   int
	Centroid orb.Point
}

// Region is a set of cells grown by the region grower; it becomes a
// segment.
type Region struct {
	ID        string
	SeedCell  string
	CellIDs   []string
	Voters    int
	Oversized bool
}

// SegmentMetadata is the metadata blob persisted with each segment.
type SegmentMetadata struct {
	NodeID               string `json:"node_id"`
	Version              int    `json:"version"`
	SegmentCode          string `json:"segment_code"`
	Algorithm            string `json:"algorithm"`
	Exception            bool   `json:"exception,omitempty"`
	ExceptionType        string `json:"exception_type,omitempty"`
	RequiresManualReview bool   `json:"requires_manual_review,omitempty"`
}

// SegmentPlan is a fully built segment before persistence.
type SegmentPlan struct {
	Code          string
	Algorithm     string
	GeometryWKT   string
	BoundaryWKT   string
	Centroid      orb.Point
	VoterIDs      []string
	FamilyIDs     []string
	TotalVoters   int
	TotalFamilies int
	Exception     string // "", oversized, undersized
}

// Metadata assembles the metadata blob for this plan.
func (p *SegmentPlan) Metadata(nodeID string, version int) SegmentMetadata {
	m := SegmentMetadata{
		NodeID:      nodeID,
		Version:     version,
		SegmentCode: p.Code,
		Algorithm:   p.Algorithm,
	}
	if p.Exception != "" {
		m.Exception = true
		m.ExceptionType = p.Exception
		m.RequiresManualReview = true
	}
	return m
}

// Segment is the persisted artifact readable by downstream consumers.
type Segment struct {
	ID            string          `json:"id"`
	ElectionID    string          `json:"election_id"`
	NodeID        string          `json:"node_id"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	Status        string          `json:"status"`
	CentroidLat   float64         `json:"centroid_lat"`
	CentroidLng   float64         `json:"centroid_lng"`
	TotalVoters   int             `json:"total_voters"`
	TotalFamilies int             `json:"total_families"`
	Metadata      SegmentMetadata `json:"metadata"`
	GeometryJSON  string          `json:"geometry,omitempty"`
	BoundaryJSON  string          `json:"boundary,omitempty"`
	AreaM2        float64         `json:"area_m2,omitempty"`
}
