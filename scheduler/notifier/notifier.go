// Package notifier implements the scheduler's optional event sink: six
// synchronous hooks fired from the emitting goroutine (registry changes,
// scheduler lifecycle, job start/finish). Handler panics are recovered and
// logged rather than allowed to reach the caller, following the
// non-blocking-delivery discipline the in-process event bus this package
// is modeled on uses for its own subscriber fan-out.
package notifier

import (
	"github.com/shreyas/cadence/lib/logger"
	"github.com/shreyas/cadence/scheduler/execution"
)

// Definition is the minimal identity a notifier needs from a job
// definition. It mirrors execution.DefinitionRef so this package never
// imports the job package.
type Definition interface {
	ID() string
	Name() string
}

// Notifier is the sink surface the Scheduler drives. All six hooks are
// invoked synchronously from the Scheduler's own goroutines; a slow or
// blocking handler delays the dispatch tick, so handlers registered here
// should be cheap or hand work off to their own goroutine.
type Notifier interface {
	OnDefinitionAdded(def Definition)
	OnDefinitionRemoved(def Definition)
	OnSchedulerStarted()
	OnSchedulerStopped()
	OnJobStarted(exec *execution.JobExecution)
	OnJobFinished(exec *execution.JobExecution)
}

// Handlers is a set of optional callbacks backing a HandlerNotifier. Any
// nil field is simply never invoked.
type Handlers struct {
	DefinitionAdded   func(def Definition)
	DefinitionRemoved func(def Definition)
	SchedulerStarted  func()
	SchedulerStopped  func()
	JobStarted        func(exec *execution.JobExecution)
	JobFinished       func(exec *execution.JobExecution)
}

// HandlerNotifier is the default Notifier: a fixed set of callbacks, any
// of which may be nil, invoked under panic recovery so a misbehaving sink
// can never take down the scheduler's dispatch loop.
type HandlerNotifier struct {
	handlers Handlers
}

// New builds a HandlerNotifier from the given Handlers.
func New(handlers Handlers) *HandlerNotifier {
	return &HandlerNotifier{handlers: handlers}
}

func (n *HandlerNotifier) OnDefinitionAdded(def Definition) {
	n.safeCall("OnDefinitionAdded", func() {
		if n.handlers.DefinitionAdded != nil {
			n.handlers.DefinitionAdded(def)
		}
	})
}

func (n *HandlerNotifier) OnDefinitionRemoved(def Definition) {
	n.safeCall("OnDefinitionRemoved", func() {
		if n.handlers.DefinitionRemoved != nil {
			n.handlers.DefinitionRemoved(def)
		}
	})
}

func (n *HandlerNotifier) OnSchedulerStarted() {
	n.safeCall("OnSchedulerStarted", func() {
		if n.handlers.SchedulerStarted != nil {
			n.handlers.SchedulerStarted()
		}
	})
}

func (n *HandlerNotifier) OnSchedulerStopped() {
	n.safeCall("OnSchedulerStopped", func() {
		if n.handlers.SchedulerStopped != nil {
			n.handlers.SchedulerStopped()
		}
	})
}

func (n *HandlerNotifier) OnJobStarted(exec *execution.JobExecution) {
	n.safeCall("OnJobStarted", func() {
		if n.handlers.JobStarted != nil {
			n.handlers.JobStarted(exec)
		}
	})
}

func (n *HandlerNotifier) OnJobFinished(exec *execution.JobExecution) {
	n.safeCall("OnJobFinished", func() {
		if n.handlers.JobFinished != nil {
			n.handlers.JobFinished(exec)
		}
	})
}

// safeCall recovers a panicking handler so sink failures are isolated
// from the scheduler, logging the recovered value for visibility.
func (n *HandlerNotifier) safeCall(hook string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("notifier handler panicked", "hook", hook, "panic", r)
		}
	}()
	call()
}

// Multi fans a single hook invocation out to several notifiers, in order.
// Each sink is isolated from the others' panics by HandlerNotifier-style
// recovery around every call.
type Multi struct {
	sinks []Notifier
}

// NewMulti builds a Multi from the given sinks, skipping nils.
func NewMulti(sinks ...Notifier) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) OnDefinitionAdded(def Definition) {
	for _, s := range m.sinks {
		m.guard(func() { s.OnDefinitionAdded(def) })
	}
}

func (m *Multi) OnDefinitionRemoved(def Definition) {
	for _, s := range m.sinks {
		m.guard(func() { s.OnDefinitionRemoved(def) })
	}
}

func (m *Multi) OnSchedulerStarted() {
	for _, s := range m.sinks {
		m.guard(func() { s.OnSchedulerStarted() })
	}
}

func (m *Multi) OnSchedulerStopped() {
	for _, s := range m.sinks {
		m.guard(func() { s.OnSchedulerStopped() })
	}
}

func (m *Multi) OnJobStarted(exec *execution.JobExecution) {
	for _, s := range m.sinks {
		m.guard(func() { s.OnJobStarted(exec) })
	}
}

func (m *Multi) OnJobFinished(exec *execution.JobExecution) {
	for _, s := range m.sinks {
		m.guard(func() { s.OnJobFinished(exec) })
	}
}

func (m *Multi) guard(call func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("notifier sink panicked", "panic", r)
		}
	}()
	call()
}

var _ Notifier = (*HandlerNotifier)(nil)
var _ Notifier = (*Multi)(nil)
