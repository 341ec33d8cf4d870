package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTrimHistoryKeepsSystemAndRecentTail(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "1"},
		{Role: RoleAssistant, Content: "2"},
		{Role: RoleUser, Content: "3"},
		{Role: RoleAssistant, Content: "4"},
	}
	trimmed := TrimHistory(messages, 3)
	if len(trimmed) != 3 {
		t.Fatalf("len = %d, want 3", len(trimmed))
	}
	if trimmed[0].Role != RoleSystem {
		t.Errorf("trimmed[0] = %+v, want leading system message", trimmed[0])
	}
	if trimmed[1].Content != "3" || trimmed[2].Content != "4" {
		t.Errorf("trimmed tail = %+v, want last two non-system messages", trimmed[1:])
	}
}

func TestTrimHistoryNoSystemMessage(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "1"},
		{Role: RoleAssistant, Content: "2"},
		{Role: RoleUser, Content: "3"},
	}
	trimmed := TrimHistory(messages, 2)
	if len(trimmed) != 2 || trimmed[0].Content != "2" || trimmed[1].Content != "3" {
		t.Errorf("trimmed = %+v, want last 2 messages", trimmed)
	}
}

func TestTrimHistoryUnderBudgetIsUnchanged(t *testing.T) {
	messages := []Message{{Role: RoleUser, Content: "1"}}
	trimmed := TrimHistory(messages, 10)
	if len(trimmed) != 1 {
		t.Errorf("expected no trimming under budget, got %+v", trimmed)
	}
}

func TestStubGenerateUnknownModelIsModelUnavailable(t *testing.T) {
	s := NewStub("gpt-local")
	_, err := s.Generate(context.Background(), "hello", GenerateOptions{Model: "missing"})
	var ie *InferenceError
	if !errors.As(err, &ie) || ie.Kind != ModelUnavailable {
		t.Fatalf("err = %v, want ModelUnavailable InferenceError", err)
	}
}

func TestStubChatEchoesLastUserMessage(t *testing.T) {
	s := NewStub("gpt-local")
	reply, err := s.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "what is 2+2"},
	}, ChatOptions{Model: "gpt-local"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Role != RoleAssistant {
		t.Errorf("reply role = %v, want assistant", reply.Role)
	}
}

func TestBackoffDelayGrowsAndStaysBounded(t *testing.T) {
	d0 := backoffDelay(0)
	d3 := backoffDelay(3)
	if d0 <= 0 {
		t.Errorf("backoffDelay(0) = %v, want > 0", d0)
	}
	// With jitter at ±25%, attempt 3's *minimum* possible delay should
	// still exceed attempt 0's *maximum* possible delay, since the base
	// grows by a factor of 8 between them.
	maxD0 := time.Duration(float64(retryBaseDelay) * (1 + retryJitter))
	minD3 := time.Duration(float64(retryBaseDelay) * 8 * (1 - retryJitter))
	if minD3 <= maxD0 {
		t.Fatalf("backoff growth too small: maxD0=%v minD3=%v", maxD0, minD3)
	}
	if d3 < 0 {
		t.Errorf("backoffDelay(3) = %v, want >= 0", d3)
	}
}

func TestWithRetryStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return &InferenceError{Kind: ModelUnavailable}
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (ModelUnavailable must not retry)", calls)
	}
	var ie *InferenceError
	if !errors.As(err, &ie) || ie.Kind != ModelUnavailable {
		t.Fatalf("err = %v, want ModelUnavailable", err)
	}
}

func TestWithRetryRetriesTransientFailureThenSucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &InferenceError{Kind: Unreachable, Cause: errors.New("connection refused")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil after eventual success", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

// TestWithRetryNoCallbackAfterCancellation exercises property #7: once
// the context is cancelled, fn must not be invoked again.
func TestWithRetryNoCallbackAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cancel()
	err := withRetry(ctx, func() error {
		calls++
		return &InferenceError{Kind: Unreachable}
	})
	if calls != 0 {
		t.Errorf("calls = %d, want 0 once context is already cancelled", calls)
	}
	var ie *InferenceError
	if !errors.As(err, &ie) || ie.Kind != Cancelled {
		t.Fatalf("err = %v, want Cancelled", err)
	}
}

func TestOrchestratorFallsBackOnModelUnavailable(t *testing.T) {
	backend := NewStub("small-model")
	orch := NewOrchestrator(backend, []string{"missing-model", "small-model"}, 50*time.Millisecond, 10)

	reply, err := orch.Chat(context.Background(), []Message{
		{Role: RoleUser, Content: "hi"},
	}, ChatOptions{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if orch.CurrentModel() != "small-model" {
		t.Errorf("CurrentModel() = %q, want fallback to succeed on small-model", orch.CurrentModel())
	}
	if reply.Content == "" {
		t.Error("expected non-empty reply content")
	}
}

func TestOrchestratorSelectModelPicksFirstResponder(t *testing.T) {
	backend := NewStub("b")
	orch := NewOrchestrator(backend, []string{"a", "b"}, 50*time.Millisecond, 10)

	if err := orch.SelectModel(context.Background()); err != nil {
		t.Fatalf("SelectModel: %v", err)
	}
	if orch.CurrentModel() != "b" {
		t.Errorf("CurrentModel() = %q, want b (the only model the stub serves)", orch.CurrentModel())
	}
}

func TestOrchestratorSelectModelFailsWhenNoneRespond(t *testing.T) {
	backend := NewStub()
	orch := NewOrchestrator(backend, []string{"a", "b"}, 50*time.Millisecond, 10)

	err := orch.SelectModel(context.Background())
	var ie *InferenceError
	if !errors.As(err, &ie) || ie.Kind != ModelUnavailable {
		t.Fatalf("err = %v, want ModelUnavailable", err)
	}
}

func TestInferenceErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &InferenceError{Kind: Unreachable, Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}
