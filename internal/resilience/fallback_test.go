package resilience

import (
	"errors"
	"testing"
	"time"
)

func quickBreaker() CircuitBreakerConfig {
	return CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: 50 * time.Millisecond}
}

func TestFallbackGroup_PrimarySucceeds(t *testing.T) {
	fg := NewFallbackGroup("primary", "p", FallbackConfig{CircuitBreaker: quickBreaker()})
	fg.AddFallback("f", "fallback")

	got, err := ExecuteWithResult(fg, func(v string) (string, error) {
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "primary" {
		t.Errorf("got %q, want the primary's result", got)
	}
}

func TestFallbackGroup_FailsOverInOrder(t *testing.T) {
	fg := NewFallbackGroup("a", "a", FallbackConfig{CircuitBreaker: quickBreaker()})
	fg.AddFallback("b", "b")
	fg.AddFallback("c", "c")

	var tried []string
	got, err := ExecuteWithResult(fg, func(v string) (string, error) {
		tried = append(tried, v)
		if v != "c" {
			return "", errors.New(v + " down")
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "c" {
		t.Errorf("got %q, want c", got)
	}
	if len(tried) != 3 || tried[0] != "a" || tried[1] != "b" {
		t.Errorf("tried = %v, want registration order", tried)
	}
}

func TestFallbackGroup_AllFail(t *testing.T) {
	fg := NewFallbackGroup("a", "a", FallbackConfig{CircuitBreaker: quickBreaker()})
	fg.AddFallback("b", "b")

	boom := errors.New("boom")
	err := fg.Execute(func(string) error { return boom })
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("error = %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroup_SkipsOpenBreaker(t *testing.T) {
	fg := NewFallbackGroup("a", "a", FallbackConfig{CircuitBreaker: quickBreaker()})
	fg.AddFallback("b", "b")

	// Trip a's breaker (MaxFailures = 2).
	for i := 0; i < 2; i++ {
		_ = fg.Execute(func(v string) error {
			if v == "a" {
				return errors.New("a down")
			}
			return nil
		})
	}

	var tried []string
	err := fg.Execute(func(v string) error {
		tried = append(tried, v)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tried) != 1 || tried[0] != "b" {
		t.Errorf("tried = %v, want only b while a's breaker is open", tried)
	}
}

func TestFallbackGroup_PassthroughStopsFailover(t *testing.T) {
	userFault := errors.New("bad input")
	fg := NewFallbackGroup("a", "a", FallbackConfig{
		CircuitBreaker: quickBreaker(),
		Passthrough:    func(err error) bool { return errors.Is(err, userFault) },
	})
	fg.AddFallback("b", "b")

	var tried []string
	err := fg.Execute(func(v string) error {
		tried = append(tried, v)
		return userFault
	})
	if !errors.Is(err, userFault) {
		t.Fatalf("error = %v, want the passthrough error unwrapped", err)
	}
	if errors.Is(err, ErrAllFailed) {
		t.Error("passthrough error must not be wrapped in ErrAllFailed")
	}
	if len(tried) != 1 {
		t.Errorf("tried %v, want no failover for a passthrough error", tried)
	}
}

func TestFallbackGroup_PassthroughDoesNotTripBreaker(t *testing.T) {
	userFault := errors.New("bad input")
	fg := NewFallbackGroup("a", "a", FallbackConfig{
		CircuitBreaker: quickBreaker(),
		Passthrough:    func(err error) bool { return errors.Is(err, userFault) },
	})

	// More passthrough failures than MaxFailures.
	for i := 0; i < 5; i++ {
		_ = fg.Execute(func(string) error { return userFault })
	}

	if got := fg.entries[0].breaker.State(); got != StateClosed {
		t.Errorf("breaker state = %v, want closed after passthrough errors", got)
	}
}
