// Package retry is the scheduler's retry-policy/context-bridge collaborator.
// The spec treats the retry policy engine itself as an external dependency
// (given a zero-argument async action, invoke it per policy and surface
// success or the terminal failure); this package supplies a concrete
// default implementation plus the typed context bag a policy action is
// handed, since a runnable scheduler needs one.
//
// The backoff numbers mirror the exponential-backoff-with-jitter shape the
// original job scheduler this package was generalized from applied to its
// retryablehttp client (RetryMax, RetryWaitMin, RetryWaitMax), expressed
// as an option struct the way RetryPolicy/TaskOptions are shaped across
// the rest of the retrieval pack (RetryMax, RetryBase, RetryMaxDelay,
// RetryJitter).
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/shreyas/cadence/scheduler/execution"
)

// DefinitionInfo is the minimal view of a job definition exposed to a
// retry-policy action through the context bag. job.Definition satisfies
// this interface structurally; no import is required in either
// direction, which keeps the retry package free of a dependency on job.
type DefinitionInfo interface {
	ID() string
	Name() string
}

// Policy is the default retry-policy engine: it invokes action up to
// MaxAttempts times, waiting an exponentially growing, jittered delay
// between attempts, and returns the first success or re-surfaces the
// last failure once attempts are exhausted.
//
// A zero-value Policy (MaxAttempts <= 1) is the no-op policy spec §4.2
// requires when a job definition has no retry policy configured: it
// invokes the action exactly once.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values <= 1 invoke the action exactly once.
	MaxAttempts int
	// BaseDelay is the delay before the second attempt; each subsequent
	// delay doubles, capped at MaxDelay.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay. Zero means no cap.
	MaxDelay time.Duration
	// Jitter is a fraction in [0, 1] of the computed delay to randomize,
	// applied as a uniform draw in [-Jitter*delay, +Jitter*delay].
	Jitter float64
}

// NoRetry is the no-op policy: one attempt, no waiting.
var NoRetry = Policy{MaxAttempts: 1}

// Run invokes action, retrying per the policy until it succeeds, attempts
// are exhausted, or ctx is cancelled. The terminal failure (or ctx's
// cancellation error) is returned if every attempt fails.
func (p Policy) Run(ctx context.Context, action func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = action(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := p.delayFor(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return lastErr
}

func (p Policy) delayFor(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	delay := base << (attempt - 1)
	if delay <= 0 { // overflow guard
		delay = p.MaxDelay
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter > 0 {
		span := float64(delay) * p.Jitter
		offset := (rand.Float64()*2 - 1) * span
		delay += time.Duration(offset)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

type bagKey struct{}

// Bag is the lookup carried to a retry-policy action for the duration of
// a single Execute call. Instead of string keys ("execution",
// "definition") it holds two explicit typed fields, stored in the context
// under one private key and read back through the accessor helpers below.
type Bag struct {
	Execution  *execution.JobExecution
	Definition DefinitionInfo
}

// WithBag attaches a Bag to ctx for the duration of a retry-policy action.
func WithBag(ctx context.Context, exec *execution.JobExecution, def DefinitionInfo) context.Context {
	return context.WithValue(ctx, bagKey{}, Bag{Execution: exec, Definition: def})
}

// ExecutionFrom returns the JobExecution carried in ctx's bag, or nil and
// false if unset.
func ExecutionFrom(ctx context.Context) (*execution.JobExecution, bool) {
	bag, ok := ctx.Value(bagKey{}).(Bag)
	if !ok || bag.Execution == nil {
		return nil, false
	}
	return bag.Execution, true
}

// DefinitionFrom returns the DefinitionInfo carried in ctx's bag, or nil
// and false if unset.
func DefinitionFrom(ctx context.Context) (DefinitionInfo, bool) {
	bag, ok := ctx.Value(bagKey{}).(Bag)
	if !ok || bag.Definition == nil {
		return nil, false
	}
	return bag.Definition, true
}
