// Package scheduler implements the in-process job scheduler: a registry
// of job definitions, a polling dispatch loop that decides when each is
// eligible to run, and the bookkeeping that tracks every execution it
// launches. The dispatch loop's panic-recovery-and-restart discipline is
// carried over from the due-jobs-finder goroutine this package grew out
// of; everything it once read from Redis now lives in memory.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shreyas/cadence/lib/logger"
	"github.com/shreyas/cadence/scheduler/clock"
	"github.com/shreyas/cadence/scheduler/execution"
	"github.com/shreyas/cadence/scheduler/job"
	"github.com/shreyas/cadence/scheduler/notifier"
)

// DefaultPollFrequency is used by Start when no interval is given.
const DefaultPollFrequency = 1 * time.Second

// Scheduler owns the definition registry, the execution roster, and the
// polling loop that dispatches due work. The zero value is not usable;
// construct with New.
type Scheduler struct {
	clk      clock.Clock
	notify   notifier.Notifier
	services job.ServiceProvider

	defMu       sync.Mutex
	definitions []job.Definition

	execMu     sync.Mutex
	executions []*execution.JobExecution

	forceMu    sync.Mutex
	forceStart map[string]struct{}

	runMu      sync.Mutex
	running    bool
	rootCancel context.CancelFunc
	dispatchWg sync.WaitGroup
	execWg     sync.WaitGroup
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithClock injects a Clock, overriding the system clock default. Tests
// use this to drive the dispatch loop deterministically.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clk = c }
}

// WithNotifier registers a Notifier sink for lifecycle and registry
// events. The default is a no-op HandlerNotifier.
func WithNotifier(n notifier.Notifier) Option {
	return func(s *Scheduler) { s.notify = n }
}

// WithServiceProvider supplies the dependency-injection collaborator
// Task-backed definitions use for constructor-injection. Optional.
func WithServiceProvider(p job.ServiceProvider) Option {
	return func(s *Scheduler) { s.services = p }
}

// New builds a Scheduler. It does not start the dispatch loop; call
// Start for that.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clk:        clock.System{},
		notify:     notifier.New(notifier.Handlers{}),
		forceStart: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends one or more definitions to the registry in the order
// given. Never fails; duplicate ids are accepted (a caller error, not
// one the core rejects).
func (s *Scheduler) Add(defs ...job.Definition) {
	s.defMu.Lock()
	s.definitions = append(s.definitions, defs...)
	s.defMu.Unlock()

	for _, def := range defs {
		s.notify.OnDefinitionAdded(def)
	}
}

// Remove deletes definitions matching any of the given ids. Absent ids
// are silently ignored.
func (s *Scheduler) Remove(ids ...string) {
	toRemove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		toRemove[id] = struct{}{}
	}

	s.defMu.Lock()
	kept := s.definitions[:0:0]
	var removed []job.Definition
	for _, def := range s.definitions {
		if _, match := toRemove[def.ID()]; match {
			removed = append(removed, def)
			continue
		}
		kept = append(kept, def)
	}
	s.definitions = kept
	s.defMu.Unlock()

	for _, def := range removed {
		s.notify.OnDefinitionRemoved(def)
	}
}

// GetAll returns a snapshot of every registered definition, in
// registration order. Mutating the returned slice never affects the
// registry.
func (s *Scheduler) GetAll() []job.Definition {
	s.defMu.Lock()
	defer s.defMu.Unlock()
	out := make([]job.Definition, len(s.definitions))
	copy(out, s.definitions)
	return out
}

// GetByID returns the definition with the given id, if registered.
func (s *Scheduler) GetByID(id string) (job.Definition, bool) {
	s.defMu.Lock()
	defer s.defMu.Unlock()
	for _, def := range s.definitions {
		if def.ID() == id {
			return def, true
		}
	}
	return nil, false
}

// GetWhere returns a snapshot of every registered definition matching
// predicate, in registration order.
func (s *Scheduler) GetWhere(predicate func(job.Definition) bool) []job.Definition {
	s.defMu.Lock()
	defer s.defMu.Unlock()
	var out []job.Definition
	for _, def := range s.definitions {
		if predicate(def) {
			out = append(out, def)
		}
	}
	return out
}

// GetExecutions returns every JobExecution launched for defID, newest
// StartTime first, optionally narrowed by predicate.
func (s *Scheduler) GetExecutions(defID string, predicate func(*execution.JobExecution) bool) []*execution.JobExecution {
	s.execMu.Lock()
	var matches []*execution.JobExecution
	for _, exec := range s.executions {
		if exec.Definition().ID() != defID {
			continue
		}
		if predicate != nil && !predicate(exec) {
			continue
		}
		matches = append(matches, exec)
	}
	s.execMu.Unlock()

	sortByStartTimeDesc(matches)
	return matches
}

func sortByStartTimeDesc(execs []*execution.JobExecution) {
	for i := 1; i < len(execs); i++ {
		for j := i; j > 0 && execs[j].StartTime().After(execs[j-1].StartTime()); j-- {
			execs[j], execs[j-1] = execs[j-1], execs[j]
		}
	}
}

// ForceStart flags defID for one immediate dispatch on the next poll,
// bypassing its schedule and overlap rule. Silently ignored if the id is
// unknown or already flagged.
func (s *Scheduler) ForceStart(defID string) {
	if _, ok := s.GetByID(defID); !ok {
		return
	}
	s.forceMu.Lock()
	s.forceStart[defID] = struct{}{}
	s.forceMu.Unlock()
}

// IsRunning reports whether the dispatch loop is active.
func (s *Scheduler) IsRunning() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// Start begins the dispatch loop, polling every pollFrequency (default
// DefaultPollFrequency when omitted). A no-op if already running.
func (s *Scheduler) Start(pollFrequency ...time.Duration) {
	interval := DefaultPollFrequency
	if len(pollFrequency) > 0 && pollFrequency[0] > 0 {
		interval = pollFrequency[0]
	}

	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.rootCancel = cancel
	s.running = true
	s.runMu.Unlock()

	s.notify.OnSchedulerStarted()

	s.dispatchWg.Add(1)
	s.runDispatchLoop(ctx, interval)
}

// Stop cancels the root cancellation, awaits every running execution,
// and transitions the scheduler to stopped. A no-op if not running.
func (s *Scheduler) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	cancel := s.rootCancel
	s.running = false
	s.runMu.Unlock()

	cancel()
	s.dispatchWg.Wait()
	s.execWg.Wait()

	s.notify.OnSchedulerStopped()
}

// runDispatchLoop runs the polling loop in its own goroutine, restarting
// itself after a recovered panic so a single misbehaving tick never kills
// scheduling permanently.
func (s *Scheduler) runDispatchLoop(ctx context.Context, interval time.Duration) {
	go func() {
		defer s.dispatchWg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("dispatch loop panicked and recovered", "panic", r)
				if ctx.Err() == nil {
					s.dispatchWg.Add(1)
					s.runDispatchLoop(ctx, interval)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// tick performs one dispatch iteration: eligible definitions are
// launched in registration order, then expired one-shots are retired.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.clk.Now()

	eligible := s.GetWhere(func(def job.Definition) bool {
		return s.CanRunJob(def, now)
	})

	for _, def := range eligible {
		s.launch(ctx, def, now)
	}

	var expired []string
	for _, def := range s.GetAll() {
		if s.IsExpired(def) {
			expired = append(expired, def.ID())
		}
	}
	if len(expired) > 0 {
		s.Remove(expired...)
	}
}

// CanRunJob evaluates eligibility for a single definition at instant now,
// applying force-start, overlap, and schedule rules in that order. A
// one-shot schedule (no cron) that has already run is exhausted and only
// a force-start makes it eligible again.
func (s *Scheduler) CanRunJob(def job.Definition, now time.Time) bool {
	if s.drainForceStart(def.ID()) {
		return true
	}

	if !def.ExecutionsCanOverlap() && s.runningCount(def.ID()) > 0 {
		return false
	}

	sch := def.Schedule()
	if sch == nil {
		return true
	}
	if _, hasRun := sch.LastRunTime(); hasRun && !sch.HasCron() {
		return false
	}
	return !now.Before(sch.NextRunTime())
}

// drainForceStart reports whether id was flagged for a forced start,
// removing the flag as a side effect so each force-start fires once.
func (s *Scheduler) drainForceStart(id string) bool {
	s.forceMu.Lock()
	defer s.forceMu.Unlock()
	if _, ok := s.forceStart[id]; ok {
		delete(s.forceStart, id)
		return true
	}
	return false
}

// IsExpired reports whether def is an exhausted one-shot eligible for
// retirement: it has a schedule with no cron expression, that schedule
// has run at least once, and no execution of def is running. A definition
// with no schedule is never retired.
func (s *Scheduler) IsExpired(def job.Definition) bool {
	sch := def.Schedule()
	if sch != nil && sch.HasCron() {
		return false
	}
	if sch == nil {
		return false
	}
	_, hasRun := sch.LastRunTime()
	if !hasRun {
		return false
	}
	return s.runningCount(def.ID()) == 0
}

func (s *Scheduler) runningCount(defID string) int {
	s.execMu.Lock()
	defer s.execMu.Unlock()
	count := 0
	for _, exec := range s.executions {
		if exec.Definition().ID() == defID && exec.Running() {
			count++
		}
	}
	return count
}

// launch performs the construction sequence in §4.3: capture StartTime,
// link cancellation, advance the schedule, emit OnJobStarted, then run
// the definition's workload in its own goroutine.
func (s *Scheduler) launch(ctx context.Context, def job.Definition, startTime time.Time) {
	exec := execution.New(uuid.NewString(), def, startTime, ctx)

	if sch := def.Schedule(); sch != nil {
		sch.SetLastRunTime(startTime)
	}

	s.execMu.Lock()
	s.executions = append(s.executions, exec)
	s.execMu.Unlock()

	s.notify.OnJobStarted(exec)

	s.execWg.Add(1)
	go s.run(def, exec)
}

// run is the asynchronous body of a single JobExecution: it acquires a
// scoped service provider when one is configured, invokes the
// definition's workload, and always finalizes the execution's terminal
// fields before firing OnJobFinished.
func (s *Scheduler) run(def job.Definition, exec *execution.JobExecution) {
	defer s.execWg.Done()

	scoped := s.services
	var scope job.ServiceScope
	if s.services != nil {
		var err error
		scope, err = s.services.NewScope()
		if err != nil {
			s.finish(exec, err)
			return
		}
		scoped = scope
		defer func() { _ = scope.Close() }()
	}

	err := def.Execute(exec, scoped, exec.Cancel)
	s.finish(exec, err)
}

func (s *Scheduler) finish(exec *execution.JobExecution, err error) {
	exec.Finish(s.clk.Now(), err)
	s.notify.OnJobFinished(exec)
}

