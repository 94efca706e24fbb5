package job

import (
	"context"

	"github.com/shreyas/cadence/scheduler/execution"
	"github.com/shreyas/cadence/scheduler/retry"
	"github.com/shreyas/cadence/scheduler/schedule"
)

// ActionFunc is the user workload an ActionJob invokes once per retry
// attempt.
type ActionFunc func(exec *execution.JobExecution, services ServiceProvider, cancel context.CancelFunc) error

// ActionJob is the Action-backed job-definition variant: it invokes a
// supplied callable with (execution, services, cancel) per attempt.
type ActionJob struct {
	id      string
	name    string
	sch     *schedule.Schedule
	overlap bool
	policy  *retry.Policy
	action  ActionFunc
}

// NewActionJob builds an ActionJob. sch may be nil, in which case the
// definition is eligible on every dispatch tick (subject to the overlap
// check) rather than gated by a cron/earliest-start schedule. policy may
// be nil to use the no-op policy.
func NewActionJob(id, name string, sch *schedule.Schedule, overlap bool, policy *retry.Policy, action ActionFunc) *ActionJob {
	return &ActionJob{id: id, name: name, sch: sch, overlap: overlap, policy: policy, action: action}
}

func (j *ActionJob) ID() string                  { return j.id }
func (j *ActionJob) Name() string                { return j.name }
func (j *ActionJob) Schedule() *schedule.Schedule { return j.sch }
func (j *ActionJob) ExecutionsCanOverlap() bool   { return j.overlap }

// Execute runs the action under the job's retry policy. The retry context
// bag carrying exec and this definition is attached to the context handed
// to the policy's closure; the ActionFunc itself receives no context, and
// exec.Context() does not carry the bag.
func (j *ActionJob) Execute(exec *execution.JobExecution, services ServiceProvider, cancel context.CancelFunc) error {
	p := policyOrDefault(j.policy)
	ctx := retry.WithBag(exec.Context(), exec, j)
	return p.Run(ctx, func(ctx context.Context) error {
		return j.action(exec, services, cancel)
	})
}
