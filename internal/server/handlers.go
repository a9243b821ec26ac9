package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voter-segmentation/internal/repository"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/model"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": errorBody{
		Code:    apperrors.GetErrorCode(err),
		Message: apperrors.GetErrorMessage(err),
	}})
}

func (s *Server) handleHealth(c *gin.Context) {
	sqlDB, err := s.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, apperrors.Wrap(apperrors.CodeDatabaseError, "database unreachable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createJobRequest struct {
	ElectionID  string `json:"election_id" binding:"required"`
	NodeID      string `json:"node_id" binding:"required"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

// handleCreateJob enqueues a segmentation job for a node. The job is
// queued only; a worker picks it up on its next poll.
func (s *Server) handleCreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, apperrors.Wrap(apperrors.CodeConfigError, "invalid request body", err))
		return
	}

	job := &repository.SegmentationJob{
		ID:          uuid.NewString(),
		ElectionID:  req.ElectionID,
		NodeID:      req.NodeID,
		JobType:     string(model.JobTypeAutoSegment),
		Status:      string(model.JobStatusQueued),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.store.Jobs.Create(c.Request.Context(), job); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("queued job %s for node %s", job.ID, job.NodeID)
	c.JSON(http.StatusCreated, toJobModel(job))
}

func (s *Server) handleGetJob(c *gin.Context) {
	job, err := s.store.Jobs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, toJobModel(job))
}

// handleListSegments returns a node's segments. Defaults to the draft
// set, which is what the last completed run produced.
func (s *Server) handleListSegments(c *gin.Context) {
	status := c.DefaultQuery("status", "draft")

	segments, err := s.store.Segments.ListByNode(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"segments": segments, "count": len(segments)})
}

func (s *Server) handleListExceptions(c *gin.Context) {
	jobID := c.Query("job_id")
	if jobID == "" {
		respondError(c, http.StatusBadRequest, apperrors.New(apperrors.CodeConfigError, "job_id query parameter is required"))
		return
	}

	rows, err := s.store.Exceptions.ListByJobID(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	exceptions := make([]model.Exception, len(rows))
	for i, row := range rows {
		exceptions[i] = toExceptionModel(&row)
	}
	c.JSON(http.StatusOK, gin.H{"exceptions": exceptions, "count": len(exceptions)})
}

func toJobModel(j *repository.SegmentationJob) model.Job {
	job := model.Job{
		ID:          j.ID,
		ElectionID:  j.ElectionID,
		NodeID:      j.NodeID,
		Type:        model.JobType(j.JobType),
		Status:      model.JobStatus(j.Status),
		Version:     j.Version,
		Name:        j.Name,
		Description: j.Description,
		CreatedBy:   j.CreatedBy,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		FinishedAt:  j.FinishedAt,
		Error:       j.Error,
	}
	if len(j.Result) > 0 {
		var result model.RunResult
		if err := json.Unmarshal(j.Result, &result); err == nil {
			job.Result = &result
		}
	}
	return job
}

func toExceptionModel(e *repository.Exception) model.Exception {
	exc := model.Exception{
		ID:         e.ID,
		ElectionID: e.ElectionID,
		EntityType: e.EntityType,
		Severity:   model.ExceptionSeverity(e.Severity),
		Type:       e.Type,
		CreatedAt:  e.CreatedAt,
	}
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &exc.Metadata)
	}
	return exc
}
