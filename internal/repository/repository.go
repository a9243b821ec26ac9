package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/voter-segmentation/pkg/model"
)

// HierarchyRepository defines hierarchy and booth lookups used by the
// scope resolver.
type HierarchyRepository interface {
	// GetNode retrieves a hierarchy node by id.
	GetNode(ctx context.Context, id string) (*HierarchyNode, error)

	// GetLevel retrieves a hierarchy level by id.
	GetLevel(ctx context.Context, id string) (*HierarchyLevel, error)

	// ListNodes retrieves all hierarchy nodes of an election.
	ListNodes(ctx context.Context, electionID string) ([]HierarchyNode, error)

	// ListLevels retrieves all hierarchy levels of an election.
	ListLevels(ctx context.Context, electionID string) ([]HierarchyLevel, error)

	// BoothsByNodeIDs retrieves booths attached to the given nodes,
	// ordered by id.
	BoothsByNodeIDs(ctx context.Context, nodeIDs []string) ([]Booth, error)
}

// VoterRepository defines voter and family lookups for the engine.
type VoterRepository interface {
	// VotersByBoothIDs retrieves voters in the given booths, ordered by id.
	VotersByBoothIDs(ctx context.Context, boothIDs []string) ([]model.Voter, error)

	// FamiliesByBoothIDs retrieves families with positive member count
	// in the given booths, ordered by id.
	FamiliesByBoothIDs(ctx context.Context, boothIDs []string) ([]model.Family, error)
}

// JobRepository defines the queue operations used by the job runner and
// the API surface.
type JobRepository interface {
	// Create inserts a queued job row.
	Create(ctx context.Context, job *SegmentationJob) error

	// GetByID retrieves a job by id.
	GetByID(ctx context.Context, id string) (*SegmentationJob, error)

	// ClaimNext leases the oldest queued auto-segment job using
	// FOR UPDATE SKIP LOCKED, transitions it to running and stamps
	// started_at. Returns nil when the queue is empty.
	ClaimNext(ctx context.Context) (*SegmentationJob, error)

	// NextVersion computes the next version number for a node.
	NextVersion(ctx context.Context, nodeID string) (int, error)

	// MarkCompleted transitions a running job to completed with its
	// version and result blob.
	MarkCompleted(ctx context.Context, id string, version int, result JSONField) error

	// MarkFailed transitions a job to failed with an error message.
	MarkFailed(ctx context.Context, id string, message string) error
}

// PlannedSegment is a segment prepared for insertion, geometry as WKT.
type PlannedSegment struct {
	ID            string
	ElectionID    string
	NodeID        string
	Name          string
	Color         string
	CentroidLat   float64
	CentroidLng   float64
	CentroidWKT   string
	BoundaryWKT   string
	GeometryWKT   string
	TotalVoters   int
	TotalFamilies int
	Metadata      JSONField
}

// SegmentRepository defines segment persistence and the post-commit
// validation queries.
type SegmentRepository interface {
	// DeleteDraft removes draft segments of a node together with their
	// members.
	DeleteDraft(ctx context.Context, nodeID string) error

	// InsertSegments bulk-inserts planned segments with geometry.
	InsertSegments(ctx context.Context, segments []PlannedSegment) error

	// InsertMembers bulk-inserts segment members in chunks.
	InsertMembers(ctx context.Context, members []SegmentMember) error

	// DraftFamilyIDs returns the family ids attached to draft segments
	// of a node, sorted ascending.
	DraftFamilyIDs(ctx context.Context, nodeID string) ([]string, error)

	// UnassignedFamilyCount counts in-scope families with positive
	// member count not attached to any draft segment of the node.
	// Families in excludeIDs are ignored; they were skipped upstream
	// for lacking coordinates.
	UnassignedFamilyCount(ctx context.Context, nodeID string, boothIDs []string, excludeIDs []string) (int, error)

	// OverlappingPairs returns pairs of draft segments of a node whose
	// interiors overlap.
	OverlappingPairs(ctx context.Context, nodeID string) ([][2]string, error)

	// InvalidGeometries returns ids of draft segments of a node with
	// invalid or empty geometry.
	InvalidGeometries(ctx context.Context, nodeID string) ([]string, error)

	// ListByNode retrieves segments of a node with GeoJSON rendering
	// and geographic area.
	ListByNode(ctx context.Context, nodeID string, status string) ([]model.Segment, error)
}

// ExceptionRepository defines exception row persistence.
type ExceptionRepository interface {
	// Create inserts an exception row.
	Create(ctx context.Context, exc *Exception) error

	// ListByJobID retrieves exceptions whose metadata references a job.
	ListByJobID(ctx context.Context, jobID string) ([]Exception, error)
}

// AuditRepository defines audit batch and movement persistence.
type AuditRepository interface {
	// CreateBatch inserts an audit batch row.
	CreateBatch(ctx context.Context, batch *AuditBatch) error

	// CreateMovements inserts audit movement rows.
	CreateMovements(ctx context.Context, movements []AuditMovement) error
}

// Store bundles all repositories over one database handle.
type Store struct {
	db         *gorm.DB
	Hierarchy  HierarchyRepository
	Voters     VoterRepository
	Jobs       JobRepository
	Segments   SegmentRepository
	Exceptions ExceptionRepository
	Audit      AuditRepository
}

// NewStore creates a Store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Hierarchy:  NewGormHierarchyRepository(db),
		Voters:     NewGormVoterRepository(db),
		Jobs:       NewGormJobRepository(db),
		Segments:   NewGormSegmentRepository(db),
		Exceptions: NewGormExceptionRepository(db),
		Audit:      NewGormAuditRepository(db),
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn inside one database transaction, with a Store
// bound to the transaction handle. Any error rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
