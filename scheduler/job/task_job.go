package job

import (
	"context"
	"io"

	"github.com/shreyas/cadence/scheduler/execution"
	"github.com/shreyas/cadence/scheduler/retry"
	"github.com/shreyas/cadence/scheduler/schedule"
)

// Runner is the disposable runner object a TaskJob constructs fresh for
// each attempt.
type Runner interface {
	Run(ctx context.Context, exec *execution.JobExecution) error
}

// TaskJob is the Task-backed job-definition variant: it constructs a
// fresh Runner per attempt (preferring the service provider's
// constructor-injection when one is present, direct construction
// otherwise), ensures it is released on every exit path, and passes the
// execution and a cancellable context to it.
type TaskJob[T Runner] struct {
	id        string
	name      string
	sch       *schedule.Schedule
	overlap   bool
	policy    *retry.Policy
	newRunner func(services ServiceProvider) (T, error)
}

// NewTaskJob builds a TaskJob. newRunner is called once per attempt.
func NewTaskJob[T Runner](id, name string, sch *schedule.Schedule, overlap bool, policy *retry.Policy, newRunner func(services ServiceProvider) (T, error)) *TaskJob[T] {
	return &TaskJob[T]{id: id, name: name, sch: sch, overlap: overlap, policy: policy, newRunner: newRunner}
}

func (j *TaskJob[T]) ID() string                  { return j.id }
func (j *TaskJob[T]) Name() string                { return j.name }
func (j *TaskJob[T]) Schedule() *schedule.Schedule { return j.sch }
func (j *TaskJob[T]) ExecutionsCanOverlap() bool   { return j.overlap }

// Execute constructs a fresh runner per retry attempt, scoped to a nested
// service scope when services is non-nil, and releases it on every exit
// path before returning.
func (j *TaskJob[T]) Execute(exec *execution.JobExecution, services ServiceProvider, cancel context.CancelFunc) error {
	p := policyOrDefault(j.policy)
	ctx := retry.WithBag(exec.Context(), exec, j)
	return p.Run(ctx, func(ctx context.Context) error {
		return j.runOnce(ctx, exec, services)
	})
}

func (j *TaskJob[T]) runOnce(ctx context.Context, exec *execution.JobExecution, services ServiceProvider) error {
	scoped := services
	if services != nil {
		scope, err := services.NewScope()
		if err != nil {
			return err
		}
		defer func() { _ = scope.Close() }()
		scoped = scope
	}

	runner, err := j.newRunner(scoped)
	if err != nil {
		return err
	}
	if closer, ok := any(runner).(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	return runner.Run(ctx, exec)
}
