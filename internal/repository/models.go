// Package repository provides database abstraction for the segmentation service.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/voter-segmentation/pkg/model"
)

// JSONField stores raw JSON in a json/jsonb column.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = JSONField(v)
	default:
		return errors.New("unsupported type for JSONField")
	}
	return nil
}

// MarshalJSONField renders v into a JSONField.
func MarshalJSONField(v interface{}) (JSONField, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSONField(b), nil
}

// Election represents the elections table.
type Election struct {
	ID   string `gorm:"column:id;type:uuid;primaryKey"`
	Name string `gorm:"column:name;type:varchar(256)"`
}

// TableName returns the table name for Election.
func (Election) TableName() string { return "elections" }

// HierarchyLevel represents the hierarchy_levels table. The level name
// is the level-kind discriminator (booth/polling vs assembly/ac).
type HierarchyLevel struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID string `gorm:"column:election_id;type:uuid;index"`
	Name       string `gorm:"column:name;type:varchar(128)"`
	Depth      int    `gorm:"column:depth"`
}

// TableName returns the table name for HierarchyLevel.
func (HierarchyLevel) TableName() string { return "hierarchy_levels" }

// HierarchyNode represents the hierarchy_nodes table.
type HierarchyNode struct {
	ID         string  `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID string  `gorm:"column:election_id;type:uuid;index"`
	LevelID    string  `gorm:"column:level_id;type:uuid;index"`
	ParentID   *string `gorm:"column:parent_id;type:uuid;index"`
	Name       string  `gorm:"column:name;type:varchar(256)"`
}

// TableName returns the table name for HierarchyNode.
func (HierarchyNode) TableName() string { return "hierarchy_nodes" }

// Booth represents the booths table.
type Booth struct {
	ID          string   `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID  string   `gorm:"column:election_id;type:uuid;index"`
	NodeID      string   `gorm:"column:node_id;type:uuid;index"`
	BoothNumber string   `gorm:"column:booth_number;type:varchar(64)"`
	Lat         *float64 `gorm:"column:lat"`
	Lng         *float64 `gorm:"column:lng"`
}

// TableName returns the table name for Booth.
func (Booth) TableName() string { return "booths" }

// Voter represents the voters table.
type Voter struct {
	ID         string   `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID string   `gorm:"column:election_id;type:uuid;index"`
	BoothID    string   `gorm:"column:booth_id;type:uuid;index"`
	FamilyID   string   `gorm:"column:family_id;type:uuid;index"`
	FullName   string   `gorm:"column:full_name;type:varchar(256)"`
	EpicNumber string   `gorm:"column:epic_number;type:varchar(32)"`
	Age        int      `gorm:"column:age"`
	Gender     string   `gorm:"column:gender;type:varchar(16)"`
	Lat        *float64 `gorm:"column:lat"`
	Lng        *float64 `gorm:"column:lng"`
	Address    string   `gorm:"column:address;type:text"`
}

// TableName returns the table name for Voter.
func (Voter) TableName() string { return "voters" }

// ToModel converts the row to its engine-facing view.
func (v *Voter) ToModel() model.Voter {
	return model.Voter{
		ID:       v.ID,
		FamilyID: v.FamilyID,
		BoothID:  v.BoothID,
		Lat:      v.Lat,
		Lng:      v.Lng,
	}
}

// Family represents the families table. Its coordinates are the
// centroid used for spatial grouping.
type Family struct {
	ID          string   `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID  string   `gorm:"column:election_id;type:uuid;index"`
	BoothID     string   `gorm:"column:booth_id;type:uuid;index"`
	MemberCount int      `gorm:"column:member_count"`
	Lat         *float64 `gorm:"column:lat"`
	Lng         *float64 `gorm:"column:lng"`
}

// TableName returns the table name for Family.
func (Family) TableName() string { return "families" }

// ToModel converts the row to its engine-facing view.
func (f *Family) ToModel() model.Family {
	return model.Family{
		ID:          f.ID,
		BoothID:     f.BoothID,
		MemberCount: f.MemberCount,
		Lat:         f.Lat,
		Lng:         f.Lng,
	}
}

// SegmentationJob represents the segmentation_jobs table.
type SegmentationJob struct {
	ID          string     `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID  string     `gorm:"column:election_id;type:uuid;index"`
	NodeID      string     `gorm:"column:node_id;type:uuid;index"`
	JobType     string     `gorm:"column:job_type;type:varchar(32);index"`
	Status      string     `gorm:"column:status;type:varchar(16);index"`
	Version     int        `gorm:"column:version"`
	Name        string     `gorm:"column:name;type:varchar(256)"`
	Description string     `gorm:"column:description;type:text"`
	CreatedBy   string     `gorm:"column:created_by;type:varchar(128)"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	FinishedAt  *time.Time `gorm:"column:finished_at"`
	Result      JSONField  `gorm:"column:result;type:jsonb"`
	Error       string     `gorm:"column:error;type:text"`
}

// TableName returns the table name for SegmentationJob.
func (SegmentationJob) TableName() string { return "segmentation_jobs" }

// Segment represents the segments table. The centroid point, boundary
// and geometry columns are PostGIS geometries written through raw SQL;
// they are not mapped here.
type Segment struct {
	ID            string    `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID    string    `gorm:"column:election_id;type:uuid;index"`
	NodeID        string    `gorm:"column:node_id;type:uuid;index"`
	Name          string    `gorm:"column:name;type:varchar(256)"`
	Color         string    `gorm:"column:color;type:varchar(16)"`
	Status        string    `gorm:"column:status;type:varchar(16);index"`
	CentroidLat   float64   `gorm:"column:centroid_lat"`
	CentroidLng   float64   `gorm:"column:centroid_lng"`
	TotalVoters   int       `gorm:"column:total_voters"`
	TotalFamilies int       `gorm:"column:total_families"`
	Metadata      JSONField `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for Segment.
func (Segment) TableName() string { return "segments" }

// SegmentMember represents the segment_members table. Members are
// always keyed by family: voters move with their family.
type SegmentMember struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey"`
	SegmentID string `gorm:"column:segment_id;type:uuid;index;uniqueIndex:idx_segment_family"`
	FamilyID  string `gorm:"column:family_id;type:uuid;uniqueIndex:idx_segment_family"`
}

// TableName returns the table name for SegmentMember.
func (SegmentMember) TableName() string { return "segment_members" }

// Exception represents the exceptions table.
type Exception struct {
	ID         string    `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID string    `gorm:"column:election_id;type:uuid;index"`
	EntityType string    `gorm:"column:entity_type;type:varchar(32)"`
	Severity   string    `gorm:"column:severity;type:varchar(16)"`
	Type       string    `gorm:"column:type;type:varchar(64)"`
	Metadata   JSONField `gorm:"column:metadata;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for Exception.
func (Exception) TableName() string { return "exceptions" }

// AuditBatch represents the audit_batches table.
type AuditBatch struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey"`
	ElectionID   string    `gorm:"column:election_id;type:uuid;index"`
	BatchType    string    `gorm:"column:batch_type;type:varchar(32)"`
	Description  string    `gorm:"column:description;type:text"`
	TotalChanges int       `gorm:"column:total_changes"`
	Status       string    `gorm:"column:status;type:varchar(16)"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for AuditBatch.
func (AuditBatch) TableName() string { return "audit_batches" }

// AuditMovement represents the audit_movements table.
type AuditMovement struct {
	ID         string    `gorm:"column:id;type:uuid;primaryKey"`
	BatchID    string    `gorm:"column:batch_id;type:uuid;index"`
	EntityType string    `gorm:"column:entity_type;type:varchar(32)"`
	EntityID   string    `gorm:"column:entity_id;type:uuid"`
	Action     string    `gorm:"column:action;type:varchar(16)"`
	NewData    JSONField `gorm:"column:new_data;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for AuditMovement.
func (AuditMovement) TableName() string { return "audit_movements" }
