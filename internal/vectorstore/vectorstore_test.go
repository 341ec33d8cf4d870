package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/kallenvale/circuitsage/internal/llm"
	"github.com/kallenvale/circuitsage/internal/model"
)

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, 2, 3}
	sim := Cosine(v, v)
	if sim < 0.999 || sim > 1.001 {
		t.Errorf("Cosine(v, v) = %v, want ~1", sim)
	}
}

func TestCosineOrthogonalIsZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := Cosine(a, b); got != 0 {
		t.Errorf("Cosine(orthogonal) = %v, want 0", got)
	}
}

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize([]float32{3, 4})
	sum := v[0]*v[0] + v[1]*v[1]
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("normalized squared length = %v, want ~1", sum)
	}
}

func component(partNumber, manufacturer, description string, specs map[string]model.SpecValue) *model.Component {
	return &model.Component{
		PartNumber:     partNumber,
		Manufacturer:   manufacturer,
		Category:       model.CategoryResistor,
		Description:    description,
		Specifications: specs,
	}
}

// TestCanonicalTextInjective checks that distinguishable components (by
// any single field) project to distinct canonical text — the property the
// cache's correctness depends on (spec.md §8 property #6).
func TestCanonicalTextInjective(t *testing.T) {
	base := component("R-1K", "Acme", "1k resistor", map[string]model.SpecValue{
		"resistance": model.NewNumberSpec(1000),
	})
	variants := []*model.Component{
		component("R-2K", "Acme", "1k resistor", base.Specifications),
		component("R-1K", "Other", "1k resistor", base.Specifications),
		component("R-1K", "Acme", "2k resistor", base.Specifications),
		component("R-1K", "Acme", "1k resistor", map[string]model.SpecValue{"resistance": model.NewNumberSpec(2000)}),
	}

	baseText := CanonicalText(base)
	for i, v := range variants {
		if CanonicalText(v) == baseText {
			t.Errorf("variant %d produced the same canonical text as base: %q", i, baseText)
		}
	}
}

func TestCanonicalTextSpecOrderIndependent(t *testing.T) {
	a := component("R-1K", "Acme", "1k resistor", map[string]model.SpecValue{
		"resistance": model.NewNumberSpec(1000),
		"tolerance":  model.NewNumberSpec(0.01),
	})
	b := component("R-1K", "Acme", "1k resistor", map[string]model.SpecValue{
		"tolerance":  model.NewNumberSpec(0.01),
		"resistance": model.NewNumberSpec(1000),
	})
	if CanonicalText(a) != CanonicalText(b) {
		t.Errorf("canonical text depends on map iteration order: %q vs %q", CanonicalText(a), CanonicalText(b))
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	// Each entry here is len("a")+len("m1")+4*4 = 19 bytes; a 40-byte
	// budget fits two entries but not three.
	c := NewCache(40)
	c.Put("a", "m1", []float32{1, 2, 3, 4})
	c.Put("b", "m1", []float32{1, 2, 3, 4})
	if _, ok := c.Get("a", "m1"); !ok {
		t.Fatal("expected a to still be cached")
	}
	// Touching "a" just now makes "b" the LRU victim once "c" arrives.
	c.Put("c", "m1", []float32{1, 2, 3, 4})

	if _, ok := c.Get("b", "m1"); ok {
		t.Error("expected b to have been evicted as least-recently-used")
	}
	if _, ok := c.Get("a", "m1"); !ok {
		t.Error("expected a to remain cached (recently touched)")
	}
	if _, ok := c.Get("c", "m1"); !ok {
		t.Error("expected c to remain cached (just inserted)")
	}
	if c.Bytes() > 40 {
		t.Errorf("cache exceeded byte budget: %d", c.Bytes())
	}
}

func TestCacheKeyedOnModelID(t *testing.T) {
	c := NewCache(0)
	c.Put("text", "model-a", []float32{1})
	if _, ok := c.Get("text", "model-b"); ok {
		t.Error("expected cache miss for a different embedding model")
	}
	if _, ok := c.Get("text", "model-a"); !ok {
		t.Error("expected cache hit for the original embedding model")
	}
}

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(ctx context.Context, text, modelID string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func TestEngineCachesAcrossCalls(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	engine := NewEngine(NewCache(0), embedder, "test-model")
	c := component("R-1K", "Acme", "1k resistor", nil)

	if _, _, err := engine.EmbedComponent(context.Background(), c); err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if _, _, err := engine.EmbedComponent(context.Background(), c); err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if embedder.calls != 1 {
		t.Errorf("embedder called %d times, want 1 (second call should hit cache)", embedder.calls)
	}
}

func TestEngineSurfacesEmbedderError(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("boom")}
	engine := NewEngine(NewCache(0), embedder, "test-model")
	c := component("R-1K", "Acme", "1k resistor", nil)

	if _, _, err := engine.EmbedComponent(context.Background(), c); err == nil {
		t.Fatal("expected an error from a failing embedder whose error isn't an Unreachable/Timeout InferenceError")
	}
}

// TestEngineFallsBackToHashEmbedWhenUnreachable is the spec.md §4.2
// fallback path: when the orchestrator is unreachable mid-request,
// EmbedComponent/EmbedQuery must substitute HashEmbed and report it as
// a fallback rather than erroring, so the recommender can degrade
// instead of aborting (spec.md §4.5 scenario S4).
func TestEngineFallsBackToHashEmbedWhenUnreachable(t *testing.T) {
	embedder := &stubEmbedder{err: &llm.InferenceError{Kind: llm.Unreachable, Cause: errors.New("connection refused")}}
	engine := NewEngine(NewCache(0), embedder, "test-model")
	c := component("R-1K", "Acme", "1k resistor", nil)

	v, fallback, err := engine.EmbedComponent(context.Background(), c)
	if err != nil {
		t.Fatalf("EmbedComponent: %v, want no error on an Unreachable InferenceError", err)
	}
	if !fallback {
		t.Error("expected fallback=true when the embedder reports Unreachable")
	}
	want := HashEmbed(CanonicalText(c))
	if Cosine(v, want) < 0.999 {
		t.Errorf("EmbedComponent fallback vector doesn't match HashEmbed(CanonicalText(c))")
	}

	qv, qFallback, err := engine.EmbedQuery(context.Background(), "10k resistor")
	if err != nil {
		t.Fatalf("EmbedQuery: %v, want no error on an Unreachable InferenceError", err)
	}
	if !qFallback {
		t.Error("expected fallback=true for EmbedQuery when the embedder reports Unreachable")
	}
	if Cosine(qv, HashEmbed("10k resistor")) < 0.999 {
		t.Errorf("EmbedQuery fallback vector doesn't match HashEmbed(query)")
	}

	// A fallback vector must never be written to the cache: a later call
	// with a working embedder should still miss and call through.
	if _, ok := engine.cache.Get(CanonicalText(c), "test-model"); ok {
		t.Error("HashEmbed fallback must not be cached")
	}
}

// TestEngineTimeoutAlsoFallsBack covers the other InferenceErrorKind the
// fallback path is specified for.
func TestEngineTimeoutAlsoFallsBack(t *testing.T) {
	embedder := &stubEmbedder{err: &llm.InferenceError{Kind: llm.Timeout, Cause: errors.New("deadline exceeded")}}
	engine := NewEngine(NewCache(0), embedder, "test-model")

	_, fallback, err := engine.EmbedQuery(context.Background(), "query")
	if err != nil {
		t.Fatalf("EmbedQuery: %v, want no error on a Timeout InferenceError", err)
	}
	if !fallback {
		t.Error("expected fallback=true when the embedder reports Timeout")
	}
}

// TestEngineModelUnavailableIsNotAFallbackCondition confirms the
// fallback is scoped to Unreachable/Timeout only: a ModelUnavailable
// error means the server is up but misconfigured, which is not the
// "orchestrator unavailable" condition spec.md §4.2 describes.
func TestEngineModelUnavailableIsNotAFallbackCondition(t *testing.T) {
	embedder := &stubEmbedder{err: &llm.InferenceError{Kind: llm.ModelUnavailable, Cause: errors.New("model not found")}}
	engine := NewEngine(NewCache(0), embedder, "test-model")

	_, _, err := engine.EmbedQuery(context.Background(), "query")
	if err == nil {
		t.Fatal("expected a ModelUnavailable error to propagate, not fall back")
	}
}

func TestHashEmbedDeterministicAndNormalized(t *testing.T) {
	a := HashEmbed("10k resistor")
	b := HashEmbed("10k resistor")
	if len(a) != FallbackDims {
		t.Fatalf("len = %d, want %d", len(a), FallbackDims)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("HashEmbed not deterministic at lane %d: %v vs %v", i, a[i], b[i])
		}
	}
	sim := Cosine(a, a)
	if sim < 0.999 {
		t.Errorf("HashEmbed(x) not self-similar: %v", sim)
	}
}

func TestHashEmbedDiffersByInput(t *testing.T) {
	a := HashEmbed("10k resistor")
	b := HashEmbed("100nF capacitor")
	if Cosine(a, b) > 0.99 {
		t.Errorf("distinct inputs produced near-identical fallback vectors")
	}
}
