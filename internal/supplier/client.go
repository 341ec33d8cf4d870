// Package supplier is a thin typed client against the Supplier
// Aggregator contract of spec.md §4.4: the aggregator itself is a
// collaborator boundary (search/details across real parts distributors),
// not part of this repo. This client narrows the aggregator's HTTP
// surface to the two operations the core consumes, adds internal rate
// limiting so the core never hits the aggregator faster than it has
// agreed to be called, and a per-(endpoint,query) TTL cache so repeated
// recommendation requests for the same requirement don't re-hit the
// network.
package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/kallenvale/circuitsage/internal/model"
)

// Client is an HTTP client for the Supplier Aggregator contract.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *cache.Cache
}

// Config holds the tunables spec.md §6 exposes for the supplier client.
type Config struct {
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	CacheTTL          time.Duration
	Timeout           time.Duration
}

// New builds a Client rate-limited to cfg.RequestsPerSecond (burst
// cfg.Burst) and caching responses for cfg.CacheTTL, following the
// per-identity rate.NewLimiter shape of wingthing's relay.RateLimiter —
// generalized here to a single limiter scoped to the whole aggregator
// endpoint, since the core speaks to exactly one aggregator, not one
// limiter per caller.
func New(cfg Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

type searchResponse struct {
	Results []*model.Component `json:"results"`
}

// Search looks up up to limit components matching query. Results are
// already deduplicated by part_number across suppliers and cached per
// (endpoint, query) by the aggregator itself — this client additionally
// caches the decoded response locally for cfg.CacheTTL to save a round
// trip entirely on a hit.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*model.Component, error) {
	if query == "" {
		return nil, &SupplierError{Kind: InvalidQuery, Cause: fmt.Errorf("empty query")}
	}
	key := "search:" + query + ":" + strconv.Itoa(limit)
	if v, ok := c.cache.Get(key); ok {
		return v.([]*model.Component), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classifyContextError(ctx, err)
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit)
	var out searchResponse
	if err := c.getJSON(ctx, reqURL, &out); err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, out.Results)
	return out.Results, nil
}

// Details fetches a single component by part number, or nil if the
// aggregator reports NotFound.
func (c *Client) Details(ctx context.Context, partNumber string) (*model.Component, error) {
	if partNumber == "" {
		return nil, &SupplierError{Kind: InvalidQuery, Cause: fmt.Errorf("empty part number")}
	}
	key := "details:" + partNumber
	if v, ok := c.cache.Get(key); ok {
		return v.(*model.Component), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classifyContextError(ctx, err)
	}

	reqURL := fmt.Sprintf("%s/details?part_number=%s", c.baseURL, url.QueryEscape(partNumber))
	var out *model.Component
	err := c.getJSON(ctx, reqURL, &out)
	if err != nil {
		if se, ok := err.(*SupplierError); ok && se.Kind == NotFound {
			c.cache.SetDefault(key, (*model.Component)(nil))
			return nil, nil
		}
		return nil, err
	}

	c.cache.SetDefault(key, out)
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &SupplierError{Kind: Unreachable, Cause: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyContextError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SupplierError{Kind: Unreachable, Cause: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(body, out); err != nil {
			return &SupplierError{Kind: Unreachable, Cause: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	case http.StatusNotFound:
		return &SupplierError{Kind: NotFound, Cause: fmt.Errorf("%s", body)}
	case http.StatusBadRequest:
		return &SupplierError{Kind: InvalidQuery, Cause: fmt.Errorf("%s", body)}
	case http.StatusTooManyRequests:
		// The aggregator guarantees it already retried/queued internally
		// (spec.md §4.4); a 429 reaching the core means its own quota with
		// upstream suppliers is exhausted, not a transient rate limit.
		return &SupplierError{Kind: QuotaExhausted, Cause: fmt.Errorf("%s", body)}
	default:
		return &SupplierError{Kind: Unreachable, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}
}

func classifyContextError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &SupplierError{Kind: Unreachable, Cause: ctx.Err()}
	}
	return &SupplierError{Kind: Unreachable, Cause: err}
}
