package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shreyas/cadence/scheduler/notifier"
)

const (
	defaultExecutionsLimit = 50
	maxExecutionsLimit     = 200
)

// executionResponse represents a single JobExecution as seen from the
// in-memory roster.
type executionResponse struct {
	ID         string  `json:"id"`
	JobID      string  `json:"job_id"`
	StartTime  int64   `json:"start_time"`
	FinishTime *int64  `json:"finish_time,omitempty"`
	Running    bool    `json:"running"`
	Success    *bool   `json:"success,omitempty"`
	Error      *string `json:"error,omitempty"`
}

type executionsResponse struct {
	Count      int                 `json:"count"`
	Executions []executionResponse `json:"executions"`
}

// TrackExecutions handles GET /v1/track/executions and returns the
// in-memory execution history for a single definition id, newest first.
func (h *Handlers) TrackExecutions(c *gin.Context) {
	jobID := c.Query("job_id")
	if jobID == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "job_id query parameter is required", "job_id")
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "limit")
		return
	}

	execs := h.Scheduler.GetExecutions(jobID, nil)
	if int64(len(execs)) > limit {
		execs = execs[:limit]
	}

	responses := make([]executionResponse, len(execs))
	for i, exec := range execs {
		resp := executionResponse{
			ID:        exec.ID(),
			JobID:     jobID,
			StartTime: exec.StartTime().Unix(),
			Running:   exec.Running(),
		}
		if finish, ok := exec.FinishTime(); ok {
			ts := finish.Unix()
			resp.FinishTime = &ts
			success := exec.Success()
			resp.Success = &success
			if execErr := exec.Error(); execErr != nil {
				msg := execErr.Error()
				resp.Error = &msg
			}
		}
		responses[i] = resp
	}

	c.JSON(http.StatusOK, executionsResponse{Count: len(responses), Executions: responses})
}

// RedisHandlers extends Handlers with a RedisNotifier-backed event
// history endpoint, for deployments that wired notifier.RedisNotifier
// into the scheduler and want to query it independently of the process's
// own in-memory roster.
type RedisHandlers struct {
	*Handlers
	Notifier *notifier.RedisNotifier
}

// TrackEvents handles GET /v1/track/events, reading the Redis-mirrored
// execution event stream instead of the in-memory roster.
func (h *RedisHandlers) TrackEvents(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "limit")
		return
	}

	events, err := h.Notifier.ListExecutionEvents(c.Request.Context(), notifier.ExecutionEventsQuery{
		JobID: c.Query("job_id"),
		Limit: limit,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "EVENTS_QUERY_FAILED", err.Error(), "")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: events})
}

func parseLimit(raw string) (int64, error) {
	if raw == "" {
		return defaultExecutionsLimit, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if value > maxExecutionsLimit {
		return maxExecutionsLimit, nil
	}
	return value, nil
}
