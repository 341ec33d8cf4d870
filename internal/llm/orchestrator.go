package llm

import (
	"context"
	"fmt"
	"time"
)

// canaryPrompt is sent to each candidate model during model selection; any
// non-error reply counts as "available".
const canaryPrompt = "ping"

// Orchestrator wraps a Backend with retry, an ordered model-fallback
// chain, and conversation trimming. It is the single entry point
// recommender/CLI/daemon code should call, rather than a Backend
// directly — mirroring the shape of cagent's runtime, which wraps a
// single model client with the fallback-chain state machine rather than
// exposing the client to callers.
type Orchestrator struct {
	backend      Backend
	models       []string // preference order; models[0] tried first
	current      string
	maxHistory   int
	canaryBudget time.Duration
}

// NewOrchestrator builds an Orchestrator over backend, trying models in
// the given preference order. canaryBudget bounds each model's probe
// during SelectModel; maxHistory bounds TrimHistory's window.
func NewOrchestrator(backend Backend, models []string, canaryBudget time.Duration, maxHistory int) *Orchestrator {
	o := &Orchestrator{backend: backend, models: models, canaryBudget: canaryBudget, maxHistory: maxHistory}
	if len(models) > 0 {
		o.current = models[0]
	}
	return o
}

// CurrentModel returns the model SelectModel (or the constructor default)
// most recently settled on.
func (o *Orchestrator) CurrentModel() string {
	return o.current
}

// SelectModel probes each model in preference order with a canary prompt
// under canaryBudget and sets current to the first that replies in time.
// Every model gets the same canaryBudget; the deadline is not scaled by
// model size. Returns an error tagged ModelUnavailable if every model
// fails its probe.
func (o *Orchestrator) SelectModel(ctx context.Context) error {
	for _, model := range o.models {
		probeCtx, cancel := context.WithTimeout(ctx, o.canaryBudget)
		_, err := o.backend.Generate(probeCtx, canaryPrompt, GenerateOptions{Model: model})
		cancel()
		if err == nil {
			o.current = model
			return nil
		}
	}
	return &InferenceError{Kind: ModelUnavailable, Cause: fmt.Errorf("no candidate model responded within its canary budget")}
}

// Chat trims messages to the orchestrator's history window, then runs
// the chat call with retry-with-backoff, falling back to the next
// model in preference order on a ModelUnavailable failure — the
// try-current-then-walk-the-chain shape of cagent's
// tryModelWithFallback, adapted from HTTP-status retryability to this
// package's InferenceErrorKind taxonomy.
func (o *Orchestrator) Chat(ctx context.Context, messages []Message, opts ChatOptions) (Message, error) {
	trimmed := TrimHistory(messages, o.maxHistory)
	chain := o.fallbackChain(opts.Model)

	var lastErr error
	for _, model := range chain {
		callOpts := opts
		callOpts.Model = model
		var reply Message
		err := withRetry(ctx, func() error {
			var callErr error
			reply, callErr = o.backend.Chat(ctx, trimmed, callOpts)
			return callErr
		})
		if err == nil {
			o.current = model
			return reply, nil
		}
		lastErr = err
		if !isModelUnavailable(err) {
			return Message{}, err
		}
	}
	return Message{}, lastErr
}

// Generate mirrors Chat's retry-then-fallback behavior for single-prompt
// generation.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	chain := o.fallbackChain(opts.Model)

	var lastErr error
	for _, model := range chain {
		callOpts := opts
		callOpts.Model = model
		var reply string
		err := withRetry(ctx, func() error {
			var callErr error
			reply, callErr = o.backend.Generate(ctx, prompt, callOpts)
			return callErr
		})
		if err == nil {
			o.current = model
			return reply, nil
		}
		lastErr = err
		if !isModelUnavailable(err) {
			return "", err
		}
	}
	return "", lastErr
}

// fallbackChain returns preferred (if non-empty) followed by the
// remaining configured models in order, deduplicated, so a caller's
// explicit model choice is tried first but still falls back to the
// configured chain.
func (o *Orchestrator) fallbackChain(preferred string) []string {
	chain := make([]string, 0, len(o.models)+1)
	seen := make(map[string]bool)
	if preferred != "" {
		chain = append(chain, preferred)
		seen[preferred] = true
	}
	for _, m := range o.models {
		if !seen[m] {
			chain = append(chain, m)
			seen[m] = true
		}
	}
	if len(chain) == 0 && o.current != "" {
		chain = append(chain, o.current)
	}
	return chain
}

func isModelUnavailable(err error) bool {
	ie, ok := err.(*InferenceError)
	return ok && ie.Kind == ModelUnavailable
}
