package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shreyas/cadence/scheduler/execution"
)

type fakeDef struct{ id, name string }

func (f fakeDef) ID() string   { return f.id }
func (f fakeDef) Name() string { return f.name }

func TestHandlerNotifier_InvokesRegisteredHooks(t *testing.T) {
	var mu sync.Mutex
	var added, removed []string
	var started, stopped int

	n := New(Handlers{
		DefinitionAdded:   func(def Definition) { mu.Lock(); added = append(added, def.ID()); mu.Unlock() },
		DefinitionRemoved: func(def Definition) { mu.Lock(); removed = append(removed, def.ID()); mu.Unlock() },
		SchedulerStarted:  func() { mu.Lock(); started++; mu.Unlock() },
		SchedulerStopped:  func() { mu.Lock(); stopped++; mu.Unlock() },
	})

	n.OnDefinitionAdded(fakeDef{id: "a"})
	n.OnDefinitionRemoved(fakeDef{id: "a"})
	n.OnSchedulerStarted()
	n.OnSchedulerStopped()

	if len(added) != 1 || added[0] != "a" {
		t.Fatalf("added = %v", added)
	}
	if len(removed) != 1 || removed[0] != "a" {
		t.Fatalf("removed = %v", removed)
	}
	if started != 1 || stopped != 1 {
		t.Fatalf("started=%d stopped=%d, want 1,1", started, stopped)
	}
}

func TestHandlerNotifier_NilHandlersAreNoOps(t *testing.T) {
	n := New(Handlers{})
	exec := execution.New("e1", fakeDef{id: "d1"}, time.Now(), context.Background())

	n.OnDefinitionAdded(fakeDef{id: "d1"})
	n.OnDefinitionRemoved(fakeDef{id: "d1"})
	n.OnSchedulerStarted()
	n.OnSchedulerStopped()
	n.OnJobStarted(exec)
	n.OnJobFinished(exec)
}

func TestHandlerNotifier_RecoversFromPanickingHandler(t *testing.T) {
	calledNext := false
	n := New(Handlers{
		JobStarted: func(exec *execution.JobExecution) { panic("boom") },
	})

	exec := execution.New("e1", fakeDef{id: "d1"}, time.Now(), context.Background())

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic escaped HandlerNotifier: %v", r)
			}
		}()
		n.OnJobStarted(exec)
		calledNext = true
	}()

	if !calledNext {
		t.Fatalf("execution did not continue after recovered panic")
	}
}

func TestMulti_FansOutToAllSinksAndIsolatesPanics(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	good := New(Handlers{SchedulerStarted: func() { mu.Lock(); calls++; mu.Unlock() }})
	bad := New(Handlers{SchedulerStarted: func() { panic("sink failure") }})

	m := NewMulti(good, bad, nil)
	m.OnSchedulerStarted()

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
