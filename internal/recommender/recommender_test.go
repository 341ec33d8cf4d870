package recommender

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/kallenvale/circuitsage/internal/catalog"
	"github.com/kallenvale/circuitsage/internal/llm"
	"github.com/kallenvale/circuitsage/internal/model"
)

// fakeStore returns a fixed set of SearchResults regardless of filter,
// except it honors Category when set, mimicking the lexical ranking
// catalog.Store.Search would already have produced.
type fakeStore struct {
	results []catalog.SearchResult
	err     error
}

func (s *fakeStore) Search(filter catalog.SearchFilter) ([]catalog.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if filter.Category == "" {
		return s.results, nil
	}
	var out []catalog.SearchResult
	for _, r := range s.results {
		if r.Component.Category == filter.Category {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeEmbedder hands back a deterministic per-part-number vector so cosine
// similarity is predictable in assertions: identical components embed
// identically, and the query vector is parameterized by the caller.
// unreachable, when set, models vectorstore.Engine's behavior when C3 is
// down: both methods still return a usable (hash-like) vector but report
// it as a fallback rather than erroring, the condition Recommend must
// degrade on instead of aborting.
type fakeEmbedder struct {
	queryVec    func(query string) []float32
	compVec     func(c *model.Component) []float32
	unreachable bool
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, bool, error) {
	return e.queryVec(query), e.unreachable, nil
}

func (e *fakeEmbedder) EmbedComponent(ctx context.Context, c *model.Component) ([]float32, bool, error) {
	return e.compVec(c), e.unreachable, nil
}

// fakeInferencer answers every Generate call with a fixed category name
// and every Chat call with a fixed justification string.
type fakeInferencer struct {
	category string
	reply    string
	err      error
}

func (f *fakeInferencer) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.category, nil
}

func (f *fakeInferencer) Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (llm.Message, error) {
	if f.err != nil {
		return llm.Message{}, f.err
	}
	return llm.Message{Role: llm.RoleAssistant, Content: f.reply}, nil
}

func opAmp(partNumber string, price float64, stock int) catalog.SearchResult {
	return catalog.SearchResult{
		Component: &model.Component{
			ID:           model.NewComponentId(),
			PartNumber:   partNumber,
			Manufacturer: "Acme",
			Category:     model.CategoryIC,
			Description:  "low-noise op-amp, single 5V supply",
			Specifications: map[string]model.SpecValue{
				"supply_voltage": model.NewNumberSpec(5),
			},
			Price:        &model.PriceInfo{Currency: "USD", UnitPrice: price},
			Availability: &model.Availability{StockLevel: stock},
		},
		Score: 0.5,
	}
}

// sameVectorEmbedder makes every component and query embed to the same
// unit vector, so cosine similarity is always 1 and combined score reduces
// to 0.5 + 0.5*lex_score — useful for isolating the lexical-score ordering
// from the vector-ranking term.
func sameVectorEmbedder() *fakeEmbedder {
	v := []float32{1, 0, 0}
	return &fakeEmbedder{
		queryVec: func(string) []float32 { return v },
		compVec:  func(*model.Component) []float32 { return v },
	}
}

func TestRecommendDegradedModeWhenInferencerNil(t *testing.T) {
	store := &fakeStore{results: []catalog.SearchResult{
		opAmp("OA-1", 1.0, 500),
		opAmp("OA-2", 2.0, 500),
		opAmp("OA-3", 3.0, 500),
	}}
	r := New(store, sameVectorEmbedder(), nil, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "low-noise op-amp, single 5V supply",
		Category:                   model.CategoryIC,
		MaxResults:                 3,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !result.Degraded {
		t.Error("expected Degraded=true with a nil Inferencer")
	}
	if len(result.Recommendations) != 3 {
		t.Fatalf("len(Recommendations) = %d, want 3", len(result.Recommendations))
	}
	for _, rec := range result.Recommendations {
		if rec.Justification != "" {
			t.Errorf("part %s: Justification = %q, want empty in degraded mode", rec.Component.PartNumber, rec.Justification)
		}
	}
}

// TestRecommendDegradedOrderMatchesLexicalScore is scenario S4: with
// inference unavailable and every candidate sharing one embedding vector,
// order must match pure lexical score (here 0.9 > 0.7 > 0.5, so OA-1,
// OA-2, OA-3).
func TestRecommendDegradedOrderMatchesLexicalScore(t *testing.T) {
	store := &fakeStore{results: []catalog.SearchResult{
		{Component: opAmp("OA-1", 1.0, 500).Component, Score: 0.9},
		{Component: opAmp("OA-2", 2.0, 500).Component, Score: 0.7},
		{Component: opAmp("OA-3", 3.0, 500).Component, Score: 0.5},
	}}
	r := New(store, sameVectorEmbedder(), nil, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "low-noise op-amp, single 5V supply",
		Category:                   model.CategoryIC,
		MaxResults:                 3,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := []string{"OA-1", "OA-2", "OA-3"}
	for i, rec := range result.Recommendations {
		if rec.Component.PartNumber != want[i] {
			t.Errorf("position %d = %s, want %s", i, rec.Component.PartNumber, want[i])
		}
	}
}

// TestRecommendDegradedWhenEmbedderUnreachable is scenario S4 as it
// actually happens in production: the Embedder is the LLM backend
// (app.go, daemon.go wire vectorstore.Engine with it directly), so a
// down inference server surfaces as EmbedQuery/EmbedComponent reporting
// the HashEmbed fallback, not as a nil Inferencer. Recommend must still
// return three ranked components with Degraded=true rather than an
// error.
func TestRecommendDegradedWhenEmbedderUnreachable(t *testing.T) {
	store := &fakeStore{results: []catalog.SearchResult{
		opAmp("OA-1", 1.0, 500),
		opAmp("OA-2", 2.0, 500),
		opAmp("OA-3", 3.0, 500),
	}}
	v := []float32{1, 0, 0}
	embedder := &fakeEmbedder{
		queryVec:    func(string) []float32 { return v },
		compVec:     func(*model.Component) []float32 { return v },
		unreachable: true,
	}
	r := New(store, embedder, &fakeInferencer{category: "IC", reply: "fits"}, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "low-noise op-amp, single 5V supply",
		Category:                   model.CategoryIC,
		MaxResults:                 3,
	})
	if err != nil {
		t.Fatalf("Recommend: %v, want no error even with the embedder down", err)
	}
	if !result.Degraded {
		t.Error("expected Degraded=true when the embedder falls back to HashEmbed")
	}
	if len(result.Recommendations) != 3 {
		t.Fatalf("len(Recommendations) = %d, want 3", len(result.Recommendations))
	}
}

func TestRecommendNoCandidatesIsRecommendError(t *testing.T) {
	store := &fakeStore{}
	r := New(store, sameVectorEmbedder(), &fakeInferencer{category: "IC", reply: "fits"}, "")

	_, err := r.Recommend(context.Background(), Request{NaturalLanguageRequirement: "anything"})
	var re *RecommendError
	if !errors.As(err, &re) || re.Kind != NoCandidates {
		t.Fatalf("err = %v, want NoCandidates RecommendError", err)
	}
}

func TestRecommendBudgetFilterExcludesOverpriced(t *testing.T) {
	store := &fakeStore{results: []catalog.SearchResult{
		opAmp("CHEAP", 1.0, 500),
		opAmp("PRICEY", 50.0, 500),
	}}
	r := New(store, sameVectorEmbedder(), &fakeInferencer{category: "IC", reply: "fits"}, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "op-amp",
		Category:                   model.CategoryIC,
		Budget:                     &Budget{Currency: "USD", MaxUnitPrice: 10},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, rec := range result.Recommendations {
		if rec.Component.PartNumber == "PRICEY" {
			t.Error("PRICEY exceeds budget and should have been excluded")
		}
	}
}

func TestRecommendBudgetFilterPenalizesUnknownPrice(t *testing.T) {
	known := opAmp("KNOWN", 1.0, 500)
	unknown := opAmp("UNKNOWN", 1.0, 500)
	unknown.Component.Price = nil
	store := &fakeStore{results: []catalog.SearchResult{known, unknown}}
	r := New(store, sameVectorEmbedder(), &fakeInferencer{category: "IC", reply: "fits"}, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "op-amp",
		Category:                   model.CategoryIC,
		Budget:                     &Budget{Currency: "USD", MaxUnitPrice: 10},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("len(Recommendations) = %d, want 2 (unknown price is penalized, not excluded)", len(result.Recommendations))
	}
	if result.Recommendations[0].Component.PartNumber != "KNOWN" {
		t.Errorf("top recommendation = %s, want KNOWN (unpenalized) ahead of UNKNOWN", result.Recommendations[0].Component.PartNumber)
	}
}

func TestRecommendExcludePartNumbers(t *testing.T) {
	store := &fakeStore{results: []catalog.SearchResult{
		opAmp("KEEP", 1.0, 500),
		opAmp("DROP", 1.0, 500),
	}}
	r := New(store, sameVectorEmbedder(), &fakeInferencer{category: "IC", reply: "fits"}, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "op-amp",
		Category:                   model.CategoryIC,
		ExcludePartNumbers:         []string{"DROP"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, rec := range result.Recommendations {
		if rec.Component.PartNumber == "DROP" {
			t.Error("DROP was explicitly excluded and should not appear")
		}
	}
}

func TestPriorityFactorCostPrefersCheaper(t *testing.T) {
	cheap := priorityFactor(opAmp("C", 1.0, 500).Component, PriorityCost)
	pricey := priorityFactor(opAmp("P", 100.0, 500).Component, PriorityCost)
	if cheap <= pricey {
		t.Errorf("cost factor cheap=%v pricey=%v, want cheap > pricey", cheap, pricey)
	}
}

func TestPriorityFactorAvailabilityPrefersStock(t *testing.T) {
	wellStocked := priorityFactor(opAmp("S", 1.0, 1000).Component, PriorityAvailability)
	scarce := priorityFactor(opAmp("R", 1.0, 10).Component, PriorityAvailability)
	if wellStocked <= scarce {
		t.Errorf("availability factor stocked=%v scarce=%v, want stocked > scarce", wellStocked, scarce)
	}
	capped := priorityFactor(opAmp("X", 1.0, 5000).Component, PriorityAvailability)
	if capped != 1.0 {
		t.Errorf("availability factor for stock > 1000 = %v, want capped at 1.0", capped)
	}
}

func TestPriorityFactorPerformanceIsUnchanged(t *testing.T) {
	f := priorityFactor(opAmp("X", 1.0, 1).Component, PriorityPerformance)
	if f != 1.0 {
		t.Errorf("performance factor = %v, want 1.0 (unchanged)", f)
	}
}

func TestPriorityFactorBalancedAveragesThree(t *testing.T) {
	c := opAmp("X", 1.0, 1000).Component
	got := priorityFactor(c, PriorityBalanced)
	cost := 1 / (1 + 1.0)
	avail := 1.0
	want := (cost + avail + 1.0) / 3
	if got != want {
		t.Errorf("balanced factor = %v, want %v", got, want)
	}
}

func TestRecommendResultIsTotalOrder(t *testing.T) {
	store := &fakeStore{results: []catalog.SearchResult{
		opAmp("A", 1.0, 900),
		opAmp("B", 5.0, 100),
		opAmp("C", 2.0, 700),
		opAmp("D", 9.0, 10),
	}}
	r := New(store, sameVectorEmbedder(), &fakeInferencer{category: "IC", reply: "fits"}, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "op-amp",
		Category:                   model.CategoryIC,
		Priority:                   PriorityBalanced,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !sort.SliceIsSorted(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].CombinedScore >= result.Recommendations[j].CombinedScore
	}) {
		t.Errorf("recommendations not in non-increasing combined-score order: %+v", result.Recommendations)
	}
}

func TestRecommendAlternativesRequireSimilarityThreshold(t *testing.T) {
	primary := opAmp("PRIMARY", 1.0, 500)
	closeSibling := opAmp("CLOSE", 1.0, 500)
	farSibling := opAmp("FAR", 1.0, 500)
	store := &fakeStore{results: []catalog.SearchResult{primary, closeSibling, farSibling}}

	vecs := map[string][]float32{
		"PRIMARY": {1, 0, 0},
		"CLOSE":   {0.99, 0.01, 0},
		"FAR":     {0, 1, 0},
	}
	embedder := &fakeEmbedder{
		queryVec: func(string) []float32 { return []float32{1, 0, 0} },
		compVec:  func(c *model.Component) []float32 { return vecs[c.PartNumber] },
	}
	r := New(store, embedder, &fakeInferencer{category: "IC", reply: "fits"}, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "op-amp",
		Category:                   model.CategoryIC,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	var primaryRec *Recommendation
	for i := range result.Recommendations {
		if result.Recommendations[i].Component.PartNumber == "PRIMARY" {
			primaryRec = &result.Recommendations[i]
		}
	}
	if primaryRec == nil {
		t.Fatal("PRIMARY missing from recommendations")
	}
	foundClose, foundFar := false, false
	for _, alt := range primaryRec.Alternatives {
		if alt.PartNumber == "CLOSE" {
			foundClose = true
		}
		if alt.PartNumber == "FAR" {
			foundFar = true
		}
	}
	if !foundClose {
		t.Error("CLOSE sibling (cosine ~0.999) should be an alternative")
	}
	if foundFar {
		t.Error("FAR sibling (cosine 0) should not be an alternative")
	}
}

func TestRecommendPreferredSpecsBoostMatchingCandidate(t *testing.T) {
	match := opAmp("MATCH", 1.0, 500)
	mismatch := opAmp("MISMATCH", 1.0, 500)
	mismatch.Component.Specifications["supply_voltage"] = model.NewNumberSpec(12)
	store := &fakeStore{results: []catalog.SearchResult{mismatch, match}}
	r := New(store, sameVectorEmbedder(), &fakeInferencer{category: "IC", reply: "fits"}, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "op-amp",
		Category:                   model.CategoryIC,
		PreferredSpecs: map[string]model.SpecValue{
			"supply_voltage": model.NewNumberSpec(5),
		},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if result.Recommendations[0].Component.PartNumber != "MATCH" {
		t.Errorf("top recommendation = %s, want MATCH (exact preferred-spec match)", result.Recommendations[0].Component.PartNumber)
	}
}

func TestRecommendJustificationFailureDegradesWithoutLosingResults(t *testing.T) {
	store := &fakeStore{results: []catalog.SearchResult{opAmp("OA-1", 1.0, 500)}}
	r := New(store, sameVectorEmbedder(), &fakeInferencer{err: errors.New("chat backend down")}, "")

	result, err := r.Recommend(context.Background(), Request{
		NaturalLanguageRequirement: "op-amp",
		Category:                   model.CategoryIC,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !result.Degraded {
		t.Error("a Chat failure during justification should degrade the result, not fail it")
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("len(Recommendations) = %d, want 1", len(result.Recommendations))
	}
}

func TestRecommendCategoryInferenceFailureDefaultsToOther(t *testing.T) {
	store := &fakeStore{results: []catalog.SearchResult{
		{Component: &model.Component{PartNumber: "X", Category: model.CategoryOther, Description: "misc part"}, Score: 1},
	}}
	r := New(store, sameVectorEmbedder(), &fakeInferencer{err: errors.New("model unavailable")}, "")

	result, err := r.Recommend(context.Background(), Request{NaturalLanguageRequirement: "some obscure part"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("len(Recommendations) = %d, want 1 (category inference failure should fall back to Other, not fail the request)", len(result.Recommendations))
	}
}
