package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDoSuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return nil
	}, DefaultConfig())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}

	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}, cfg)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
	}

	wantErr := errors.New("persistent failure")
	err := Do(context.Background(), func() error {
		calls++
		return wantErr
	}, cfg)

	if !errors.Is(err, wantErr) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoRetryIfStopsImmediately(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
		RetryIf: func(err error) bool {
			return false
		},
	}

	err := Do(context.Background(), func() error {
		calls++
		return errors.New("do not retry")
	}, cfg)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := Config{
		MaxRetries:   10,
		InitialDelay: 50 * time.Millisecond,
		Multiplier:   1.0,
	}

	err := Do(ctx, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("failure")
	}, cfg)

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls > 3 {
		t.Errorf("expected retries to stop after cancel, got %d calls", calls)
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
	}

	result, err := DoWithResult(context.Background(), func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("not yet")
		}
		return 42, nil
	}, cfg)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
}

func TestDoWithResultRetryIf(t *testing.T) {
	permanent := errors.New("permanent")
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
		RetryIf: func(err error) bool {
			return !errors.Is(err, permanent)
		},
	}

	calls := 0
	_, err := DoWithResult(context.Background(), func() (string, error) {
		calls++
		return "", permanent
	}, cfg)

	if !errors.Is(err, permanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestCalculateDelayGrowth(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0,
	}
	cfg.validate()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second}, // ограничено MaxDelay
		{10, time.Second},
	}

	for _, tt := range tests {
		got := cfg.calculateDelay(tt.attempt)
		if got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestCalculateDelayJitterBounds(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.5,
	}
	cfg.validate()

	for i := 0; i < 100; i++ {
		d := cfg.calculateDelay(0)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("delay %v outside jitter bounds [50ms, 150ms]", d)
		}
	}
}

func TestRetryIfNotContext(t *testing.T) {
	if RetryIfNotContext(context.Canceled) {
		t.Error("context.Canceled should not be retried")
	}
	if RetryIfNotContext(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded should not be retried")
	}
	// Вызывающий код оборачивает ошибки через %w - предикат обязан
	// видеть контекстную ошибку сквозь обёртку
	if RetryIfNotContext(fmt.Errorf("close short leg: %w", context.Canceled)) {
		t.Error("wrapped context.Canceled should not be retried")
	}
	if RetryIfNotContext(fmt.Errorf("get order history: %w", context.DeadlineExceeded)) {
		t.Error("wrapped context.DeadlineExceeded should not be retried")
	}
	if !RetryIfNotContext(errors.New("network error")) {
		t.Error("ordinary errors should be retried")
	}
	if !RetryIfNotContext(fmt.Errorf("request failed: %w", errors.New("network error"))) {
		t.Error("wrapped ordinary errors should be retried")
	}
	if RetryIfNotContext(nil) {
		t.Error("nil is not retryable")
	}
}

func TestDoStopsOnWrappedContextError(t *testing.T) {
	cfg := Config{
		MaxRetries:   6,
		InitialDelay: time.Millisecond,
		RetryIf:      RetryIfNotContext,
	}

	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("close short leg: %w", context.Canceled)
	}, cfg)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
