package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shreyas/cadence/scheduler/execution"
)

func TestPolicy_NoRetry_InvokesOnce(t *testing.T) {
	calls := 0
	err := NoRetry.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestPolicy_RetriesUntilSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestPolicy_ExhaustsAttempts_ReturnsLastError(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	sentinel := errors.New("final")
	err := p.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 3 {
			return sentinel
		}
		return errors.New("retry me")
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestPolicy_StopsOnCancellation(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := p.Run(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls >= 5 {
		t.Fatalf("calls = %d, expected cancellation to cut attempts short", calls)
	}
}

type fakeDef struct{ id, name string }

func (f fakeDef) ID() string   { return f.id }
func (f fakeDef) Name() string { return f.name }

func TestBag_RoundTrip(t *testing.T) {
	exec := execution.New("exec-1", nil, time.Now(), context.Background())
	def := fakeDef{id: "def-1", name: "demo"}

	ctx := WithBag(context.Background(), exec, def)

	gotExec, ok := ExecutionFrom(ctx)
	if !ok || gotExec != exec {
		t.Fatalf("ExecutionFrom = (%v, %v), want (%v, true)", gotExec, ok, exec)
	}

	gotDef, ok := DefinitionFrom(ctx)
	if !ok || gotDef.ID() != "def-1" {
		t.Fatalf("DefinitionFrom = (%v, %v), want def-1", gotDef, ok)
	}
}

func TestBag_UnsetReturnsFalse(t *testing.T) {
	if _, ok := ExecutionFrom(context.Background()); ok {
		t.Fatalf("expected no execution in bare context")
	}
	if _, ok := DefinitionFrom(context.Background()); ok {
		t.Fatalf("expected no definition in bare context")
	}
}
