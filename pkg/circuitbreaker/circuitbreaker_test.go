package circuitbreaker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var errBackendDown = errors.New("backend down")

func testConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             50 * time.Millisecond,
		MaxRequestsHalfOpen: 3,
	}
}

func tripBreaker(t *testing.T, cb *CircuitBreaker, cfg Config) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < cfg.FailureThreshold; i++ {
		if err := cb.Execute(ctx, func() error { return errBackendDown }); err == nil {
			t.Fatal("expected failure to propagate")
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open after %d failures, got %v", cfg.FailureThreshold, cb.GetState())
	}
}

func TestCircuitBreaker_PassesThroughWhileClosed(t *testing.T) {
	cb := New(testConfig())

	err := cb.Execute(context.Background(), func() error { return nil })
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("expected closed, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cfg := testConfig()
	cb := New(cfg)
	ctx := context.Background()

	// Two failures, a success, then two more failures must not open the
	// breaker: only a consecutive streak counts.
	cb.Execute(ctx, func() error { return errBackendDown })
	cb.Execute(ctx, func() error { return errBackendDown })
	cb.Execute(ctx, func() error { return nil })
	cb.Execute(ctx, func() error { return errBackendDown })
	cb.Execute(ctx, func() error { return errBackendDown })

	if cb.GetState() != StateClosed {
		t.Errorf("expected closed, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_OpensAtThresholdAndRejects(t *testing.T) {
	cfg := testConfig()
	cb := New(cfg)
	tripBreaker(t, cb, cfg)

	called := false
	err := cb.Execute(context.Background(), func() error {
		called = true
		return nil
	})
	if err == nil {
		t.Error("expected rejection while open")
	}
	if !strings.Contains(err.Error(), "open") {
		t.Errorf("expected rejection to name the open state, got %v", err)
	}
	if called {
		t.Error("function must not run while the breaker is open")
	}
}

func TestCircuitBreaker_ClosesAfterSuccessfulProbes(t *testing.T) {
	cfg := testConfig()
	cb := New(cfg)
	tripBreaker(t, cb, cfg)

	time.Sleep(cfg.Timeout + 10*time.Millisecond)

	ctx := context.Background()
	for i := 0; i < cfg.SuccessThreshold; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Fatalf("probe %d: expected success, got %v", i, err)
		}
	}

	if cb.GetState() != StateClosed {
		t.Errorf("expected closed after successful probes, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cfg := testConfig()
	cb := New(cfg)
	tripBreaker(t, cb, cfg)

	time.Sleep(cfg.Timeout + 10*time.Millisecond)

	if err := cb.Execute(context.Background(), func() error { return errBackendDown }); err == nil {
		t.Fatal("expected probe failure to propagate")
	}
	if cb.GetState() != StateOpen {
		t.Errorf("expected open after failed probe, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cfg := testConfig()
	cfg.SuccessThreshold = 10 // keep the breaker half-open across probes
	cb := New(cfg)
	tripBreaker(t, cb, cfg)

	time.Sleep(cfg.Timeout + 10*time.Millisecond)

	ctx := context.Background()
	allowed := 0
	for i := 0; i < cfg.MaxRequestsHalfOpen+2; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err == nil {
			allowed++
		}
	}
	if allowed != cfg.MaxRequestsHalfOpen {
		t.Errorf("expected %d probes allowed, got %d", cfg.MaxRequestsHalfOpen, allowed)
	}
}

func TestCircuitBreaker_ReportsStateChanges(t *testing.T) {
	cfg := testConfig()
	cb := New(cfg)

	type transition struct{ from, to State }
	changes := make(chan transition, 4)
	cb.OnStateChange(func(from, to State) {
		changes <- transition{from, to}
	})

	tripBreaker(t, cb, cfg)

	select {
	case tr := <-changes:
		if tr.from != StateClosed || tr.to != StateOpen {
			t.Errorf("expected closed->open, got %v->%v", tr.from, tr.to)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state change callback")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
