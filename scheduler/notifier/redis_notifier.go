package notifier

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/shreyas/cadence/lib/logger"
	"github.com/shreyas/cadence/scheduler/execution"
)

const executionEventsStreamKey = "cadence:execution-events"

// ExecutionEvent is a single job-started or job-finished observation
// mirrored to the Redis stream backing RedisNotifier.
type ExecutionEvent struct {
	ID         string
	JobID      string
	JobName    string
	Phase      string // "started" or "finished"
	StartTime  int64
	FinishTime int64
	Success    bool
	Error      string
}

// ExecutionEventsQuery narrows ListExecutionEvents results.
type ExecutionEventsQuery struct {
	JobID string
	Limit int64
}

// RedisNotifier mirrors job start/finish events to a Redis stream, so a
// separate process can tail execution history without coupling to the
// scheduler's in-memory roster. It wraps a HandlerNotifier rather than
// reimplementing panic recovery.
type RedisNotifier struct {
	*HandlerNotifier
	client *redis.Client
}

// NewRedisNotifier builds a RedisNotifier writing to client. Stream
// writes failures are logged and otherwise swallowed: per the sink
// contract, a notifier failure must never alter scheduler behavior.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	n := &RedisNotifier{client: client}
	n.HandlerNotifier = New(Handlers{
		JobStarted:  n.recordStart,
		JobFinished: n.recordFinish,
	})
	return n
}

// Ping reports whether the Redis connection backing this notifier is
// reachable, for callers wiring it into a health check.
func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

func (n *RedisNotifier) recordStart(exec *execution.JobExecution) {
	event := ExecutionEvent{
		JobID:     exec.Definition().ID(),
		JobName:   exec.Definition().Name(),
		Phase:     "started",
		StartTime: exec.StartTime().Unix(),
	}
	_ = n.save(context.Background(), event)
}

func (n *RedisNotifier) recordFinish(exec *execution.JobExecution) {
	finishTime, _ := exec.FinishTime()
	errMsg := ""
	if err := exec.Error(); err != nil {
		errMsg = err.Error()
	}
	event := ExecutionEvent{
		JobID:      exec.Definition().ID(),
		JobName:    exec.Definition().Name(),
		Phase:      "finished",
		StartTime:  exec.StartTime().Unix(),
		FinishTime: finishTime.Unix(),
		Success:    exec.Success(),
		Error:      errMsg,
	}
	_ = n.save(context.Background(), event)
}

func (n *RedisNotifier) save(ctx context.Context, event ExecutionEvent) error {
	values := map[string]interface{}{
		"job_id":      event.JobID,
		"job_name":    event.JobName,
		"phase":       event.Phase,
		"start_time":  event.StartTime,
		"finish_time": event.FinishTime,
		"success":     strconv.FormatBool(event.Success),
		"error":       event.Error,
	}

	_, err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: executionEventsStreamKey,
		Values: values,
	}).Result()
	if err != nil {
		err = fmt.Errorf("failed to save execution event to redis stream: %w", err)
		logger.Warn("redis notifier write failed", "job_id", event.JobID, "phase", event.Phase, "error", err)
		return err
	}
	return nil
}

// ListExecutionEvents returns recorded events in reverse-chronological
// (most recent first) order, optionally filtered by job ID and capped at
// query.Limit (0 means unbounded).
func (n *RedisNotifier) ListExecutionEvents(ctx context.Context, query ExecutionEventsQuery) ([]ExecutionEvent, error) {
	var (
		msgs []redis.XMessage
		err  error
	)
	if count := fetchCount(query.JobID, query.Limit); count > 0 {
		msgs, err = n.client.XRevRangeN(ctx, executionEventsStreamKey, "+", "-", count).Result()
	} else {
		msgs, err = n.client.XRevRange(ctx, executionEventsStreamKey, "+", "-").Result()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read execution events stream: %w", err)
	}

	events := make([]ExecutionEvent, 0, len(msgs))
	for _, msg := range msgs {
		event := ExecutionEvent{ID: msg.ID}
		if v, ok := msg.Values["job_id"].(string); ok {
			event.JobID = v
		}
		if v, ok := msg.Values["job_name"].(string); ok {
			event.JobName = v
		}
		if v, ok := msg.Values["phase"].(string); ok {
			event.Phase = v
		}
		event.StartTime = parseInt(msg.Values["start_time"])
		event.FinishTime = parseInt(msg.Values["finish_time"])
		if v, ok := msg.Values["success"].(string); ok {
			event.Success, _ = strconv.ParseBool(v)
		}
		if v, ok := msg.Values["error"].(string); ok {
			event.Error = v
		}

		if query.JobID != "" && event.JobID != query.JobID {
			continue
		}
		events = append(events, event)
	}

	if query.JobID != "" && query.Limit > 0 && int64(len(events)) > query.Limit {
		events = events[:query.Limit]
	}

	eventTime := func(e ExecutionEvent) int64 {
		if e.Phase == "finished" {
			return e.FinishTime
		}
		return e.StartTime
	}
	sort.SliceStable(events, func(i, j int) bool { return eventTime(events[i]) > eventTime(events[j]) })

	return events, nil
}

// fetchCount widens the raw XRevRangeN count when filtering by job ID,
// since filtering happens client-side after the read.
func fetchCount(jobID string, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	if jobID != "" {
		return limit * 20
	}
	return limit
}

func parseInt(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

var _ Notifier = (*RedisNotifier)(nil)
