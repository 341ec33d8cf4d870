// Package simulate wraps a native SPICE shared library loaded at runtime
// (spec.md §4.8, C8). The native runtime is stateful and non-reentrant, so
// the package owns a single process-wide handle guarded by an exclusive
// lock; callers either fail fast or queue behind a running simulation
// depending on the configured Policy.
package simulate

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Policy governs what happens when a caller invokes an engine operation
// while another is already running (spec.md §8 S6).
type Policy string

const (
	// FailFast returns ConcurrentAccess immediately instead of waiting.
	FailFast Policy = "fail-fast"
	// Queue blocks the caller until the running operation releases the
	// lock, honoring ctx cancellation.
	Queue Policy = "queue"
)

// binding is the narrow native-library capability the engine depends on.
// nativeBinding (native.go) satisfies it via purego against the real
// shared library; fakeBinding (engine_test.go) satisfies it in tests
// without touching a real library.
type binding interface {
	LoadNetlist(spiceText string) (messages []string, err error)
	Run(req RunRequest) (Result, []string, error)
	HealthCheck() (version string, ok bool)
	Close() error
}

// Engine is the process-wide SPICE adapter. Exactly one Engine should
// exist per loaded shared library; the native runtime has no concept of
// multiple independent instances.
type Engine struct {
	lib    binding
	sem    *semaphore.Weighted
	policy Policy

	closeOnce sync.Once
}

// Open dlopens libraryPath and returns an Engine. The caller must Close it
// when done to release the library handle.
func Open(libraryPath string, policy Policy) (*Engine, error) {
	lib, err := openNative(libraryPath)
	if err != nil {
		return nil, &SimulationError{Kind: LibraryLoadFailed, Cause: err}
	}
	return newEngine(lib, policy), nil
}

func newEngine(lib binding, policy Policy) *Engine {
	return &Engine{
		lib:    lib,
		sem:    semaphore.NewWeighted(1),
		policy: policy,
	}
}

// acquire obtains the exclusive runtime lock per the configured Policy.
func (e *Engine) acquire(ctx context.Context) error {
	if e.policy == FailFast {
		if !e.sem.TryAcquire(1) {
			return &SimulationError{Kind: ConcurrentAccess}
		}
		return nil
	}
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return &SimulationError{Kind: Timeout, Cause: err}
	}
	return nil
}

func (e *Engine) release() {
	e.sem.Release(1)
}

// LoadNetlist submits spiceText to the engine. Messages surfaced on the
// engine's callback stream are collected and returned as LoadFailed.
func (e *Engine) LoadNetlist(ctx context.Context, spiceText string) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	messages, err := e.lib.LoadNetlist(spiceText)
	if err != nil {
		return &SimulationError{Kind: LoadFailed, Messages: messages, Cause: err}
	}
	if len(messages) > 0 {
		return &SimulationError{Kind: LoadFailed, Messages: messages}
	}
	return nil
}

// Run executes one analysis and extracts its result vectors. Result
// extraction happens strictly after the native call returns (spec.md §5's
// "no partial reads" ordering guarantee) since Run is synchronous.
func (e *Engine) Run(ctx context.Context, req RunRequest) (Result, error) {
	if err := e.acquire(ctx); err != nil {
		return Result{}, err
	}
	defer e.release()

	result, messages, err := e.lib.Run(req)
	if err != nil {
		return Result{}, &SimulationError{Kind: RunFailed, Messages: messages, Cause: err}
	}
	return result, nil
}

// HealthCheck confirms the library is loadable and returns its version.
func (e *Engine) HealthCheck(ctx context.Context) (string, error) {
	if err := e.acquire(ctx); err != nil {
		return "", err
	}
	defer e.release()

	version, ok := e.lib.HealthCheck()
	if !ok {
		return "", &SimulationError{Kind: LibraryLoadFailed}
	}
	return version, nil
}

// Close releases the library handle; the registered callbacks are not
// unregistered. Safe to call more than once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.lib.Close()
	})
	return err
}
