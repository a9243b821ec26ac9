// Package model defines the domain types shared across the segmentation service.
package model

import (
	"encoding/json"
	"time"
)

// JobType identifies the kind of work a queue row represents.
type JobType string

// JobTypeAutoSegment is the only job type the runner consumes.
const JobTypeAutoSegment JobType = "auto_segment"

// JobStatus is the lifecycle state of a segmentation job.
// Terminal states (completed, failed) are absorbing.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is a segmentation work item.
type Job struct {
	ID          string     `json:"id"`
	ElectionID  string     `json:"election_id"`
	NodeID      string     `json:"node_id"`
	Type        JobType    `json:"job_type"`
	Status      JobStatus  `json:"status"`
	Version     int        `json:"version"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Result      *RunResult `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// RunResult is the engine result blob stored on a completed job.
type RunResult struct {
	SegmentCount int    `json:"segment_count"`
	VoterCount   int    `json:"voter_count"`
	FamilyCount  int    `json:"family_count"`
	AlgorithmMs  int64  `json:"algorithm_ms"`
	DBWriteMs    int64  `json:"db_write_ms"`
	TotalMs      int64  `json:"total_ms"`
	RunHash      string `json:"run_hash"`
}

// Marshal renders the result for the job's result column.
func (r *RunResult) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// ExceptionSeverity grades exception rows.
type ExceptionSeverity string

const (
	SeverityLow      ExceptionSeverity = "low"
	SeverityMedium   ExceptionSeverity = "medium"
	SeverityHigh     ExceptionSeverity = "high"
	SeverityCritical ExceptionSeverity = "critical"
)

// ExceptionTypeOther is the catch-all exception type used for job
// failures, where the metadata reason code carries the detail.
const ExceptionTypeOther = "other"

// Exception surfaces segments that need review and fatal job failures.
type Exception struct {
	ID         string            `json:"id"`
	ElectionID string            `json:"election_id"`
	EntityType string            `json:"entity_type"`
	Severity   ExceptionSeverity `json:"severity"`
	Type       string            `json:"type"`
	Metadata   map[string]any    `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
