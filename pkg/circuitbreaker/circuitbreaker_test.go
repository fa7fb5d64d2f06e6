package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errDependency = errors.New("dependency failed")

func failingCall() error { return errDependency }
func healthyCall() error { return nil }

func testConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             50 * time.Millisecond,
		MaxRequestsHalfOpen: 2,
	}
}

func TestBreaker_StartsClosed(t *testing.T) {
	cb := New(testConfig())
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
	if err := cb.Execute(context.Background(), healthyCall); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
}

func TestBreaker_OpensAtFailureThreshold(t *testing.T) {
	cb := New(testConfig())

	for i := 0; i < 3; i++ {
		if err := cb.Execute(context.Background(), failingCall); err == nil {
			t.Fatal("expected failure to propagate")
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open after threshold", cb.State())
	}

	// Open circuit rejects without running the call.
	ran := false
	err := cb.Execute(context.Background(), func() error {
		ran = true
		return nil
	})
	if err == nil {
		t.Fatal("expected rejection while open")
	}
	if ran {
		t.Error("call ran while circuit was open")
	}
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb := New(testConfig())

	cb.Execute(context.Background(), failingCall)
	cb.Execute(context.Background(), failingCall)
	cb.Execute(context.Background(), healthyCall)
	cb.Execute(context.Background(), failingCall)
	cb.Execute(context.Background(), failingCall)

	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed with interleaved successes", cb.State())
	}
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(testConfig())

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), failingCall)
	}
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	time.Sleep(60 * time.Millisecond)

	// Probes succeed, circuit closes after SuccessThreshold.
	if err := cb.Execute(context.Background(), healthyCall); err != nil {
		t.Fatalf("probe 1 error = %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open", cb.State())
	}
	if err := cb.Execute(context.Background(), healthyCall); err != nil {
		t.Fatalf("probe 2 error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed after probes", cb.State())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	cb := New(testConfig())

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), failingCall)
	}
	time.Sleep(60 * time.Millisecond)

	if err := cb.Execute(context.Background(), failingCall); err == nil {
		t.Fatal("expected probe failure to propagate")
	}
	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open after failed probe", cb.State())
	}
}

func TestBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cfg := testConfig()
	cfg.SuccessThreshold = 10 // keep the circuit half-open during the test
	cb := New(cfg)

	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), failingCall)
	}
	time.Sleep(60 * time.Millisecond)

	allowed := 0
	for i := 0; i < 5; i++ {
		if err := cb.Execute(context.Background(), healthyCall); err == nil {
			allowed++
		}
	}
	if allowed != cfg.MaxRequestsHalfOpen {
		t.Errorf("allowed %d probes, want %d", allowed, cfg.MaxRequestsHalfOpen)
	}
}

func TestBreaker_Reset(t *testing.T) {
	cb := New(testConfig())
	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), failingCall)
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed after Reset", cb.State())
	}
}

func TestBreaker_ExecuteWithResult(t *testing.T) {
	cb := New(testConfig())
	got, err := cb.ExecuteWithResult(context.Background(), func() (interface{}, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v", err)
	}
	if got.(int) != 7 {
		t.Errorf("ExecuteWithResult() = %v, want 7", got)
	}
}

func TestBreaker_WrapsCause(t *testing.T) {
	cb := New(testConfig())
	err := cb.Execute(context.Background(), failingCall)
	if !errors.Is(err, errDependency) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}
