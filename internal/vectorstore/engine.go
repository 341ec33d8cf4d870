package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kallenvale/circuitsage/internal/llm"
	"github.com/kallenvale/circuitsage/internal/model"
)

// Embedder is the narrow capability the embedding engine needs from the
// LLM orchestrator (spec.md §4.3's embed(text, model) call): only its
// ability to produce a vector, not its HTTP/retry machinery. The one
// thing this package does borrow from internal/llm is the
// InferenceError tag used to recognize the "orchestrator unreachable"
// condition below.
type Embedder interface {
	Embed(ctx context.Context, text, modelID string) ([]float32, error)
}

// Engine computes and caches Component embeddings (spec.md §4.2).
type Engine struct {
	cache    *Cache
	embedder Embedder
	modelID  string
}

// NewEngine builds an Engine backed by cache and embedder, using modelID
// to tag vectors and as half of the cache key.
func NewEngine(cache *Cache, embedder Embedder, modelID string) *Engine {
	return &Engine{cache: cache, embedder: embedder, modelID: modelID}
}

// EmbedComponent returns c's embedding, computing and caching it on a
// cache miss. Vectors are cached under the canonical projection of c and
// the engine's model id; invalidated only when modelID changes (spec.md
// §3: "invalidated only when the associated embedding-model identifier
// changes"). The bool return reports whether the vector is the
// HashEmbed fallback rather than a model-produced embedding (spec.md
// §4.2's fallback path); a fallback vector is never written to the
// cache.
func (e *Engine) EmbedComponent(ctx context.Context, c *model.Component) ([]float32, bool, error) {
	text := CanonicalText(c)

	if v, ok := e.cache.Get(text, e.modelID); ok {
		return v, false, nil
	}

	if e.embedder == nil {
		return nil, false, fmt.Errorf("vectorstore: no embedder configured and no cached vector for %q", c.PartNumber)
	}

	v, err := e.embedder.Embed(ctx, text, e.modelID)
	if err != nil {
		if isOrchestratorUnavailable(err) {
			return HashEmbed(text), true, nil
		}
		return nil, false, fmt.Errorf("vectorstore: embed %q: %w", c.PartNumber, err)
	}
	v = Normalize(v)
	e.cache.Put(text, e.modelID, v)
	return v, false, nil
}

// EmbedQuery embeds a free-text query the same way a Component's
// canonical projection would be embedded, without touching the cache (a
// query string is not a Component and has no stable identity to key on).
// The bool return has the same fallback meaning as EmbedComponent's.
func (e *Engine) EmbedQuery(ctx context.Context, query string) ([]float32, bool, error) {
	if e.embedder == nil {
		return nil, false, fmt.Errorf("vectorstore: no embedder configured for query embedding")
	}
	v, err := e.embedder.Embed(ctx, query, e.modelID)
	if err != nil {
		if isOrchestratorUnavailable(err) {
			return HashEmbed(query), true, nil
		}
		return nil, false, fmt.Errorf("vectorstore: embed query: %w", err)
	}
	return Normalize(v), false, nil
}

// isOrchestratorUnavailable reports whether err indicates the inference
// server itself is unreachable (as opposed to a model- or
// protocol-level failure), the condition under which the recommender's
// degraded mode (spec.md §4.5 scenario S4) substitutes the hash-based
// fallback embedding rather than failing the request outright.
func isOrchestratorUnavailable(err error) bool {
	var ierr *llm.InferenceError
	if !errors.As(err, &ierr) {
		return false
	}
	return ierr.Kind == llm.Unreachable || ierr.Kind == llm.Timeout
}

// ModelID reports the embedding model this engine is currently keyed on.
func (e *Engine) ModelID() string {
	return e.modelID
}
