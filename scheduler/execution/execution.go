// Package execution implements the per-run state machine for a single job
// execution: created -> running -> finished(success|error). An execution
// is constructed only by the scheduler, never re-run, and never mutated
// once FinishTime is set.
package execution

import (
	"context"
	"time"
)

// DefinitionRef is the minimal view of a job definition an execution
// needs to hold as a back-reference, kept narrow to avoid a dependency
// cycle between the execution and job packages (job.Definition satisfies
// this interface structurally, with no import required on either side).
type DefinitionRef interface {
	ID() string
	Name() string
}

// JobExecution is one concrete attempt to run a job definition.
type JobExecution struct {
	id         string
	definition DefinitionRef

	startTime  time.Time
	finishTime time.Time
	hasFinish  bool
	err        error

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a JobExecution linked to parentCtx (the scheduler's root
// cancellation). The caller is responsible for recording StartTime before
// any observer can see the execution, per the construction sequence in
// the scheduler.
func New(id string, def DefinitionRef, startTime time.Time, parentCtx context.Context) *JobExecution {
	ctx, cancel := context.WithCancel(parentCtx)
	return &JobExecution{
		id:         id,
		definition: def,
		startTime:  startTime,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ID returns the execution's unique identifier.
func (e *JobExecution) ID() string { return e.id }

// Definition returns the back-reference to the definition this execution
// is running an attempt of.
func (e *JobExecution) Definition() DefinitionRef { return e.definition }

// StartTime returns the instant the execution began.
func (e *JobExecution) StartTime() time.Time { return e.startTime }

// FinishTime returns the instant the execution finished, and whether it
// has finished yet.
func (e *JobExecution) FinishTime() (time.Time, bool) { return e.finishTime, e.hasFinish }

// Error returns the terminal error, if any. Undefined (nil, by
// convention) while the execution is still running.
func (e *JobExecution) Error() error { return e.err }

// Running reports whether the execution has not yet finished.
func (e *JobExecution) Running() bool { return !e.hasFinish }

// Success reports whether the execution finished without error. Its
// result is meaningless while Running is true.
func (e *JobExecution) Success() bool { return e.hasFinish && e.err == nil }

// Duration returns FinishTime - StartTime. It is zero while running.
func (e *JobExecution) Duration() time.Duration {
	if !e.hasFinish {
		return 0
	}
	return e.finishTime.Sub(e.startTime)
}

// Context returns the execution's cancellation context, linked to the
// scheduler's root cancellation.
func (e *JobExecution) Context() context.Context { return e.ctx }

// Cancel cancels this execution's context without affecting sibling
// executions or the scheduler.
func (e *JobExecution) Cancel() { e.cancel() }

// Finish records the execution's terminal state. It is called exactly
// once, by the scheduler's asynchronous body, after user code has
// returned or failed.
func (e *JobExecution) Finish(finishTime time.Time, err error) {
	e.finishTime = finishTime
	e.hasFinish = true
	e.err = err
	e.cancel()
}
