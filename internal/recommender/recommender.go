// Package recommender implements the candidate-gathering, vector-ranking,
// budget/priority adjustment, and LLM-justification pipeline of
// spec.md §4.5 (C5).
package recommender

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kallenvale/circuitsage/internal/catalog"
	"github.com/kallenvale/circuitsage/internal/llm"
	"github.com/kallenvale/circuitsage/internal/model"
	"github.com/kallenvale/circuitsage/internal/vectorstore"
)

// ComponentStore is the narrow C1 capability this package depends on.
type ComponentStore interface {
	Search(filter catalog.SearchFilter) ([]catalog.SearchResult, error)
}

// Embedder is the narrow C2/C3 capability for turning free text and
// components into vectors. The bool return reports whether the vector
// is vectorstore's HashEmbed fallback rather than a model-produced
// embedding — C3 being unreachable mid-request degrades the result
// (spec.md §4.5 scenario S4) instead of failing it.
type Embedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, bool, error)
	EmbedComponent(ctx context.Context, c *model.Component) ([]float32, bool, error)
}

// Inferencer is the narrow C3 capability for category classification and
// justification prose. A nil Inferencer passed to New means C3 is
// unavailable: Recommend degrades per spec.md §4.5's failure semantics
// rather than failing the request.
type Inferencer interface {
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error)
	Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (llm.Message, error)
}

const (
	defaultNLex             = 64
	defaultEmbedConcurrency = 5
	siblingSimilarity       = 0.85
	maxAlternatives         = 2
	unknownPricePenalty     = 0.9
)

// scoredCandidate pairs a search result with its embedding and the
// evolving combined score as it passes through the ranking/filter/
// priority stages.
type scoredCandidate struct {
	result *catalog.SearchResult
	vector []float32
	score  float64
}

// Recommender runs the spec.md §4.5 algorithm over a ComponentStore,
// Embedder, and optional Inferencer.
type Recommender struct {
	store            ComponentStore
	embedder         Embedder
	inferencer       Inferencer // nil => C3 unavailable, degrade
	model            string
	nLex             int
	embedConcurrency int
}

// New builds a Recommender. inferencer may be nil to model C3 being
// unavailable at startup; model is the LLM model name passed to
// Generate/Chat calls.
func New(store ComponentStore, embedder Embedder, inferencer Inferencer, modelName string) *Recommender {
	return &Recommender{
		store:            store,
		embedder:         embedder,
		inferencer:       inferencer,
		model:            modelName,
		nLex:             defaultNLex,
		embedConcurrency: defaultEmbedConcurrency,
	}
}

// Recommend runs the full algorithm for req.
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Result, error) {
	degraded := r.inferencer == nil

	// Step 1: candidate gathering.
	category := req.Category
	if category == "" && r.inferencer != nil {
		inferred, err := r.inferCategory(ctx, req.NaturalLanguageRequirement)
		if err != nil {
			category = model.CategoryOther
		} else {
			category = inferred
		}
	}

	filter := catalog.SearchFilter{
		FreeText: req.NaturalLanguageRequirement,
		Category: category,
		Limit:    r.nLex,
	}
	searchResults, err := r.store.Search(filter)
	if err != nil {
		return nil, fmt.Errorf("recommender: candidate search: %w", err)
	}
	searchResults = excludeParts(searchResults, req.ExcludePartNumbers)
	if len(searchResults) == 0 {
		return nil, &RecommendError{Kind: NoCandidates, Cause: fmt.Errorf("no candidates matched the request")}
	}

	// Step 2: vector ranking. A fallback (hash-based) vector on either
	// side degrades the result rather than aborting it: the inference
	// server being down mid-request still owes the caller a ranked list.
	queryVec, queryFallback, err := r.embedder.EmbedQuery(ctx, req.NaturalLanguageRequirement)
	if err != nil {
		return nil, fmt.Errorf("recommender: embed requirement: %w", err)
	}
	candidateVecs, candidatesFallback, err := r.embedCandidates(ctx, searchResults)
	if err != nil {
		return nil, fmt.Errorf("recommender: embed candidates: %w", err)
	}
	if queryFallback || candidatesFallback {
		degraded = true
	}

	ranked := make([]scoredCandidate, len(searchResults))
	for i := range searchResults {
		cosSim := vectorstore.Cosine(queryVec, candidateVecs[i])
		combined := 0.5*searchResults[i].Score + 0.5*float64(cosSim)
		ranked[i] = scoredCandidate{
			result: &searchResults[i],
			vector: candidateVecs[i],
			score:  combined + specMatchBonus(searchResults[i].Component, req.PreferredSpecs),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	// Step 3: budget filter.
	if req.Budget != nil {
		filtered := ranked[:0]
		for _, s := range ranked {
			price, known := unitPrice(s.result.Component)
			if known && price > req.Budget.MaxUnitPrice {
				continue
			}
			if !known {
				s.score *= unknownPricePenalty
			}
			filtered = append(filtered, s)
		}
		ranked = filtered
	}
	if len(ranked) == 0 {
		return nil, &RecommendError{Kind: NoCandidates, Cause: fmt.Errorf("no candidates remained within budget")}
	}

	// Step 4: priority adjustment.
	for i := range ranked {
		ranked[i].score *= priorityFactor(ranked[i].result.Component, req.Priority)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > len(ranked) {
		maxResults = len(ranked)
	}
	top := ranked[:maxResults]

	// Step 6: alternatives, computed before justification since it only
	// needs the ranking and vectors, not prose.
	recommendations := make([]Recommendation, len(top))
	for i, s := range top {
		recommendations[i] = Recommendation{
			Component:     s.result.Component,
			CombinedScore: s.score,
			Alternatives:  alternativesFor(s.result.Component, s.vector, ranked, i),
		}
	}

	// Step 5: justification. Runs strictly after ranking/alternatives are
	// finalized — the LLM's prose never reorders the already-computed
	// slice, it only annotates it.
	if r.inferencer != nil {
		if err := r.justify(ctx, req.NaturalLanguageRequirement, recommendations); err != nil {
			degraded = true
		}
	} else {
		degraded = true
	}

	return &Result{Recommendations: recommendations, Degraded: degraded}, nil
}

func (r *Recommender) inferCategory(ctx context.Context, requirement string) (model.Category, error) {
	prompt := classificationPrompt(requirement)
	reply, err := r.inferencer.Generate(ctx, prompt, llm.GenerateOptions{Model: r.model})
	if err != nil {
		return "", &RecommendError{Kind: CategoryInferenceFailed, Cause: err}
	}
	category := model.ParseCategory(strings.TrimSpace(reply))
	return category, nil
}

func classificationPrompt(requirement string) string {
	return fmt.Sprintf(
		"Classify the following electronic component requirement into exactly one category: "+
			"Resistor, Capacitor, Inductor, Diode, Transistor, IC, Connector, Switch, Sensor, "+
			"PowerManagement, or Other. Reply with only the category name.\n\nRequirement: %s",
		requirement)
}

// embedCandidates computes (or retrieves from cache via Embedder) the
// embedding of every search result concurrently, bounded to
// embedConcurrency in flight at once — the batch-with-concurrency-limit
// shape of cagent's embedBatchOptimized, adapted from batched provider
// calls to one EmbedComponent call per candidate since this engine has no
// batch embedding endpoint.
func (r *Recommender) embedCandidates(ctx context.Context, results []catalog.SearchResult) ([][]float32, bool, error) {
	vecs := make([][]float32, len(results))
	var mu sync.Mutex
	var fallback bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.embedConcurrency)

	for i := range results {
		i := i
		g.Go(func() error {
			vec, usedFallback, err := r.embedder.EmbedComponent(gctx, results[i].Component)
			if err != nil {
				return fmt.Errorf("embed candidate %s: %w", results[i].Component.PartNumber, err)
			}
			mu.Lock()
			vecs[i] = vec
			fallback = fallback || usedFallback
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	return vecs, fallback, nil
}

// specMatchBonus rewards a candidate for matching PreferredSpecs. Unlike
// Category and Budget, preferred specs are a soft signal rather than a
// hard pre-filter: catalog.SearchFilter.SpecRanges is a strict numeric
// min/max predicate that would eliminate a candidate for missing a
// "preferred" value by a fraction of a unit, which contradicts the word
// "preferred". Instead every matching key nudges the combined score by a
// small fixed increment, so a close-but-imperfect match still surfaces.
const specMatchIncrement = 0.02

func specMatchBonus(c *model.Component, preferred map[string]model.SpecValue) float64 {
	var bonus float64
	for key, want := range preferred {
		have, ok := c.SpecLookup(key)
		if !ok {
			continue
		}
		if specValuesMatch(want, have) {
			bonus += specMatchIncrement
		}
	}
	return bonus
}

func specValuesMatch(want, have model.SpecValue) bool {
	switch want.Kind {
	case model.SpecText:
		return strings.EqualFold(want.Text, have.Text)
	case model.SpecBoolean:
		return have.Kind == model.SpecBoolean && want.Boolean == have.Boolean
	case model.SpecNumber:
		return have.Kind == model.SpecNumber && have.Number == want.Number
	case model.SpecRange:
		return have.Kind == model.SpecNumber && have.Number >= want.Min && have.Number <= want.Max
	default:
		return false
	}
}

func excludeParts(results []catalog.SearchResult, exclude []string) []catalog.SearchResult {
	if len(exclude) == 0 {
		return results
	}
	excluded := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		excluded[p] = true
	}
	filtered := results[:0]
	for _, r := range results {
		if !excluded[r.Component.PartNumber] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func unitPrice(c *model.Component) (float64, bool) {
	if c.Price == nil {
		return 0, false
	}
	return c.Price.UnitPrice, true
}

func stockLevel(c *model.Component) int {
	if c.Availability == nil {
		return 0
	}
	return c.Availability.StockLevel
}

// priorityFactor implements spec.md §4.5 step 4.
func priorityFactor(c *model.Component, priority Priority) float64 {
	costFactor := func() float64 {
		price, known := unitPrice(c)
		if !known {
			return 1
		}
		return 1 / (1 + price)
	}
	availFactor := func() float64 {
		stock := stockLevel(c)
		if stock > 1000 {
			stock = 1000
		}
		return float64(stock) / 1000
	}
	const perfFactor = 1.0

	switch priority {
	case PriorityCost:
		return costFactor()
	case PriorityAvailability:
		return availFactor()
	case PriorityBalanced:
		return (costFactor() + availFactor() + perfFactor) / 3
	case PriorityPerformance, "":
		return perfFactor
	default:
		return perfFactor
	}
}

func alternativesFor(primary *model.Component, primaryVec []float32, ranked []scoredCandidate, primaryIdx int) []*model.Component {
	var alternatives []*model.Component
	for i, s := range ranked {
		if i == primaryIdx {
			continue
		}
		if s.result.Component.Category != primary.Category {
			continue
		}
		if vectorstore.Cosine(primaryVec, s.vector) < siblingSimilarity {
			continue
		}
		alternatives = append(alternatives, s.result.Component)
		if len(alternatives) >= maxAlternatives {
			break
		}
	}
	return alternatives
}

// justify invokes C3.chat once per recommendation, requesting a
// one-paragraph rationale. Recommendations are mutated in place with
// Justification set; ranking order is never touched here.
func (r *Recommender) justify(ctx context.Context, requirement string, recs []Recommendation) error {
	for i := range recs {
		prompt := justificationPrompt(requirement, recs[i].Component)
		reply, err := r.inferencer.Chat(ctx, []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		}, llm.ChatOptions{Model: r.model})
		if err != nil {
			return err
		}
		recs[i].Justification = reply.Content
	}
	return nil
}

func justificationPrompt(requirement string, c *model.Component) string {
	var specs strings.Builder
	keys := make([]string, 0, len(c.Specifications))
	for k := range c.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&specs, "%s=%s; ", k, c.Specifications[k].String())
	}
	return fmt.Sprintf(
		"Requirement: %s\n\nCandidate part %s (%s, %s): %s\nSpecs: %s\n\n"+
			"Write a one-paragraph rationale for why this part fits the requirement.",
		requirement, c.PartNumber, c.Manufacturer, c.Category, c.Description, specs.String())
}
