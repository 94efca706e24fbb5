// Package job defines the polymorphic job-definition contract the
// scheduler's registry holds: a stable identity, an optional schedule, an
// overlap flag, an optional retry policy, and an Execute capability that
// runs the user's workload under the retry policy.
//
// Two concrete variants are provided, generalized from the single
// HTTP-calling job type ("ApiCallerJob") the original redis-backed
// scheduler this package grew out of shipped: ActionJob wraps a plain
// closure, TaskJob wraps a per-attempt constructor for a disposable
// runner object, matching the Action-backed/Task-backed split in spec.
package job

import (
	"context"

	"github.com/shreyas/cadence/scheduler/execution"
	"github.com/shreyas/cadence/scheduler/retry"
	"github.com/shreyas/cadence/scheduler/schedule"
)

// ServiceProvider resolves named services and can create a nested scope
// whose resources are released on scope exit. It models the
// dependency-injection container spec treats as an external collaborator:
// no concrete implementation is required, and cadence's own code never
// calls Resolve — it exists purely so TaskJob can offer
// constructor-injection to callers that have a real container.
type ServiceProvider interface {
	// Resolve looks up a named service. ok is false if none is registered.
	Resolve(name string) (svc any, ok bool)
	// NewScope creates a nested scope. The scope must be closed by the
	// caller on every exit path.
	NewScope() (ServiceScope, error)
}

// ServiceScope is a ServiceProvider whose resources are released by Close.
type ServiceScope interface {
	ServiceProvider
	Close() error
}

// Definition is the capability set every job-definition variant
// implements. Variants are interchangeable behind this contract.
type Definition interface {
	// ID is the definition's stable identity.
	ID() string
	// Name is a human-readable label.
	Name() string
	// Schedule is the definition's optional schedule. Nil means the
	// definition has no cron/earliest-start gating: every dispatch tick
	// finds it eligible (subject to the overlap check), the same as a
	// schedule whose NextRunTime is always now.
	Schedule() *schedule.Schedule
	// ExecutionsCanOverlap reports whether more than one execution of
	// this definition may be RUNNING at once.
	ExecutionsCanOverlap() bool
	// Execute runs the definition's workload under its retry policy (or
	// the no-op policy if none is configured), for a single JobExecution.
	Execute(exec *execution.JobExecution, services ServiceProvider, cancel context.CancelFunc) error
}

// policyOrDefault returns p if non-nil, otherwise the no-op policy spec
// §4.2 requires when a definition has no retry policy configured.
func policyOrDefault(p *retry.Policy) retry.Policy {
	if p == nil {
		return retry.NoRetry
	}
	return *p
}
