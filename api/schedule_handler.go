package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shreyas/cadence/scheduler"
	"github.com/shreyas/cadence/scheduler/httpjob"
	"github.com/shreyas/cadence/scheduler/job"
	"github.com/shreyas/cadence/scheduler/schedule"
)

// Handlers bundles the Scheduler the HTTP surface drives. It is
// constructed once at startup and wired into routes.Setup.
type Handlers struct {
	Scheduler *scheduler.Scheduler
}

// scheduleHTTPJobRequest is the payload for POST /v1/schedule/http-job.
type scheduleHTTPJobRequest struct {
	ID       string `json:"id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Cron     string `json:"cron"`
	API      string `json:"api" binding:"required"`
	Type     string `json:"type" binding:"required"` // AT_MOST_ONCE or AT_LEAST_ONCE
	Overlap  bool   `json:"overlap"`
	JitterMS int64  `json:"jitter_ms"`
}

type definitionResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Overlap bool   `json:"overlap_allowed"`
}

// ScheduleHTTPJob handles POST /v1/schedule/http-job: registers an
// HTTP-calling definition built from the request's cron expression and
// run guarantee.
func (h *Handlers) ScheduleHTTPJob(c *gin.Context) {
	var req scheduleHTTPJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error(), "")
		return
	}

	var opts []schedule.Option
	if req.Cron != "" {
		opts = append(opts, schedule.WithCron(req.Cron))
	}
	if req.JitterMS > 0 {
		opts = append(opts, schedule.WithJitter(time.Duration(req.JitterMS)*time.Millisecond))
	}
	sch := schedule.New(opts...)

	httpReq := httpjob.Request{
		ID:       req.ID,
		Name:     req.Name,
		URL:      req.API,
		Schedule: sch,
		Overlap:  req.Overlap,
	}

	var (
		aj  *job.ActionJob
		err error
	)
	switch req.Type {
	case "AT_MOST_ONCE":
		aj, err = httpjob.AtMostOnce(httpReq)
	case "AT_LEAST_ONCE":
		aj, err = httpjob.AtLeastOnce(httpReq)
	default:
		respondError(c, http.StatusBadRequest, "INVALID_TYPE", "type must be AT_MOST_ONCE or AT_LEAST_ONCE", "type")
		return
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, "JOB_CREATION_FAILED", err.Error(), "")
		return
	}

	h.Scheduler.Add(aj)

	c.JSON(http.StatusCreated, definitionResponse{
		ID:      aj.ID(),
		Name:    aj.Name(),
		Overlap: aj.ExecutionsCanOverlap(),
	})
}

// ListDefinitions handles GET /v1/definitions.
func (h *Handlers) ListDefinitions(c *gin.Context) {
	defs := h.Scheduler.GetAll()
	out := make([]definitionResponse, len(defs))
	for i, def := range defs {
		out[i] = definitionResponse{ID: def.ID(), Name: def.Name(), Overlap: def.ExecutionsCanOverlap()}
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: out})
}

// RemoveDefinition handles DELETE /v1/definitions/:id.
func (h *Handlers) RemoveDefinition(c *gin.Context) {
	id := c.Param("id")
	h.Scheduler.Remove(id)
	c.Status(http.StatusNoContent)
}

// ForceStartDefinition handles POST /v1/definitions/:id/force-start.
func (h *Handlers) ForceStartDefinition(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.Scheduler.GetByID(id); !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no definition registered with that id", "id")
		return
	}
	h.Scheduler.ForceStart(id)
	c.Status(http.StatusAccepted)
}

func respondError(c *gin.Context, status int, code, message, field string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Field: field}})
}
