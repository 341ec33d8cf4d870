package llm

import (
	"context"
	"fmt"
	"strings"
)

// Stub is a deterministic Backend for tests and for the degraded-mode
// code paths that must be exercised without a live inference server. It
// never performs network I/O; Generate/Chat echo a fixed, reproducible
// response derived from the input so callers can assert on exact output.
type Stub struct {
	// Models is the set of names ListModels/ShowModel/PullModel/DeleteModel
	// report as known. A Generate/Chat/Embed call for a model not in this
	// set fails with ModelUnavailable, mirroring a real backend that only
	// serves pulled models.
	Models map[string]ModelInfo

	// FailWith, if set, is returned by every call instead of a normal
	// response — used to exercise orchestrator fallback/retry behavior
	// deterministically.
	FailWith error
}

// NewStub builds a Stub serving the given model names with zero-value
// ModelInfo entries.
func NewStub(models ...string) *Stub {
	m := make(map[string]ModelInfo, len(models))
	for _, name := range models {
		m[name] = ModelInfo{Name: name}
	}
	return &Stub{Models: m}
}

func (s *Stub) checkModel(name string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.Models[name]; !ok {
		return &InferenceError{Kind: ModelUnavailable, Model: name, Cause: fmt.Errorf("model not pulled")}
	}
	return nil
}

func (s *Stub) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := s.checkModel(opts.Model); err != nil {
		return "", err
	}
	return fmt.Sprintf("[%s] %s", opts.Model, prompt), nil
}

func (s *Stub) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan Chunk, error) {
	text, err := s.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return chunksFor(text), nil
}

func (s *Stub) Chat(ctx context.Context, messages []Message, opts ChatOptions) (Message, error) {
	if err := s.checkModel(opts.Model); err != nil {
		return Message{}, err
	}
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			last = messages[i].Content
			break
		}
	}
	return Message{Role: RoleAssistant, Content: fmt.Sprintf("[%s] %s", opts.Model, last)}, nil
}

func (s *Stub) ChatStream(ctx context.Context, messages []Message, opts ChatOptions) (<-chan Chunk, error) {
	reply, err := s.Chat(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	return chunksFor(reply.Content), nil
}

// Embed returns the deterministic hash-mix fallback vector for text,
// scoped to this package rather than vectorstore's HashEmbed so the llm
// package has no dependency on vectorstore; callers needing the real
// fallback-embedding property (never persisted) use vectorstore.HashEmbed
// directly.
func (s *Stub) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if err := s.checkModel(model); err != nil {
		return nil, err
	}
	sum := 0
	for _, r := range text {
		sum += int(r)
	}
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32((sum+i)%97) / 97
	}
	return vec, nil
}

func (s *Stub) ListModels(ctx context.Context) ([]ModelInfo, error) {
	out := make([]ModelInfo, 0, len(s.Models))
	for _, m := range s.Models {
		out = append(out, m)
	}
	return out, nil
}

func (s *Stub) PullModel(ctx context.Context, name string) error {
	s.Models[name] = ModelInfo{Name: name}
	return nil
}

func (s *Stub) DeleteModel(ctx context.Context, name string) error {
	delete(s.Models, name)
	return nil
}

func (s *Stub) ShowModel(ctx context.Context, name string) (ModelInfo, error) {
	info, ok := s.Models[name]
	if !ok {
		return ModelInfo{}, &InferenceError{Kind: ModelUnavailable, Model: name}
	}
	return info, nil
}

func chunksFor(text string) <-chan Chunk {
	out := make(chan Chunk)
	go func() {
		defer close(out)
		words := strings.Fields(text)
		for _, w := range words {
			out <- Chunk{Content: w + " "}
		}
		out <- Chunk{Done: true}
	}()
	return out
}
