package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 1 * time.Millisecond}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryPolicy())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryPolicy())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_AtMostThreeAttempts(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryPolicy())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRetry_QuotaExceededNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrQuotaExceeded{Err: errors.New("429")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryPolicy())

	_, err := p.Generate(context.Background(), Request{})
	var quota *ErrQuotaExceeded
	if !errors.As(err, &quota) {
		t.Fatalf("got %v, want ErrQuotaExceeded", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_ModelNotFoundNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrModelNotFound{Model: "claude-opus", Err: errors.New("404")}},
	)
	p := WithRetry(mock, retryPolicy())

	_, err := p.Generate(context.Background(), Request{})
	var notFound *ErrModelNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want ErrModelNotFound", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryPolicy())

	_, err := p.Generate(ctx, Request{})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if mock.CallCount() > 2 {
		t.Fatalf("kept retrying after cancellation: %d calls", mock.CallCount())
	}
}

func TestBackoff_Linear(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Delay: 100 * time.Millisecond}
	for attempt, want := range []time.Duration{100, 200, 300} {
		if got := p.Backoff(attempt); got != want*time.Millisecond {
			t.Errorf("Backoff(%d) = %v, want %v", attempt, got, want*time.Millisecond)
		}
	}
}
