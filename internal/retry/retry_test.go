package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"webmon/internal/retry"
)

func fastConfig(tries int) retry.Config {
	return retry.Config{Tries: tries, Delay: time.Millisecond, Backoff: 2, MaxInterval: 4 * time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	attempts := 0
	v, err := retry.Do(context.Background(), fastConfig(3), nil, func(context.Context) (string, error) {
		attempts++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Errorf("expected %q, got %q", "ok", v)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	for _, failures := range []int{1, 2} {
		attempts := 0
		v, err := retry.Do(context.Background(), fastConfig(3), nil, func(context.Context) (int, error) {
			attempts++
			if attempts <= failures {
				return 0, errors.New("transient")
			}
			return 42, nil
		})
		if err != nil {
			t.Fatalf("failures=%d: unexpected error: %v", failures, err)
		}
		if v != 42 {
			t.Errorf("failures=%d: expected 42, got %d", failures, v)
		}
		if attempts != failures+1 {
			t.Errorf("failures=%d: expected %d attempts, got %d", failures, failures+1, attempts)
		}
	}
}

func TestDo_Exhausted(t *testing.T) {
	attempts := 0
	underlying := errors.New("permanent")
	_, err := retry.Do(context.Background(), fastConfig(3), nil, func(context.Context) (int, error) {
		attempts++
		return 0, underlying
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, underlying) {
		t.Error("expected exhausted error to wrap the last underlying error")
	}
	if attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestDo_DelaysNonDecreasingAndCapped(t *testing.T) {
	cfg := retry.Config{Tries: 5, Delay: 2 * time.Millisecond, Backoff: 2, MaxInterval: 5 * time.Millisecond}
	var stamps []time.Time
	_, err := retry.Do(context.Background(), cfg, nil, func(context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("fail")
	})
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %v", err)
	}
	if len(stamps) != 5 {
		t.Fatalf("expected 5 attempts, got %d", len(stamps))
	}

	var gaps []time.Duration
	for i := 1; i < len(stamps); i++ {
		gaps = append(gaps, stamps[i].Sub(stamps[i-1]))
	}
	// Timers never fire early, so each gap is at least the configured wait:
	// 2ms, 4ms, then capped at 5ms.
	want := []time.Duration{2, 4, 5, 5}
	for i, g := range gaps {
		if g < want[i]*time.Millisecond {
			t.Errorf("gap %d = %v, want at least %v", i, g, want[i]*time.Millisecond)
		}
	}
}

func TestDo_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	done := make(chan error, 1)
	go func() {
		_, err := retry.Do(ctx, retry.Config{Tries: 5, Delay: time.Hour, Backoff: 1}, nil, func(context.Context) (int, error) {
			attempts++
			return 0, errors.New("fail")
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			t.Error("cancellation must not be reported as retry exhaustion")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return promptly after cancellation")
	}
	if attempts != 1 {
		t.Errorf("expected no further attempts after cancellation, got %d", attempts)
	}
}
