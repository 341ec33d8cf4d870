package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/kallenvale/circuitsage/internal/catalog"
	"github.com/kallenvale/circuitsage/internal/circuit"
	"github.com/kallenvale/circuitsage/internal/config"
	"github.com/kallenvale/circuitsage/internal/llm"
	"github.com/kallenvale/circuitsage/internal/logger"
	"github.com/kallenvale/circuitsage/internal/model"
	"github.com/kallenvale/circuitsage/internal/recommender"
	"github.com/kallenvale/circuitsage/internal/simulate"
	"github.com/kallenvale/circuitsage/internal/supplier"
	"github.com/kallenvale/circuitsage/internal/validate"
	"github.com/kallenvale/circuitsage/internal/vectorstore"
)

// daemon holds the core stack csd serves over HTTP and WebSocket: the
// aggregated output contract a GUI shell would consume (SPEC_FULL.md's
// Daemon & CLI surface), grounded on internal/daemon.Daemon's
// Config+Store pairing and registerRoutes shape from internal/transport.
type daemon struct {
	cfg      *config.Config
	store    *catalog.Store
	backend  llm.Backend
	orch     *llm.Orchestrator
	rec      *recommender.Recommender
	sim      *simulate.Engine // nil when simulation.library_path is unset
	supplier *supplier.Client
	hub      *wsHub
	log      *charmlog.Logger
}

func newDaemon(cfg *config.Config) (*daemon, error) {
	store, err := catalog.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open component store: %w", err)
	}

	backend := llm.NewLocalHTTP(
		fmt.Sprintf("http://%s:%d", cfg.Inference.Host, cfg.Inference.Port),
		time.Duration(cfg.Inference.TimeoutSeconds)*time.Second,
	)
	orch := llm.NewOrchestrator(backend, append([]string{cfg.Inference.DefaultModel}, cfg.Inference.FallbackModels...), 5*time.Second, cfg.Inference.MaxHistory)

	cache := vectorstore.NewCache(cfg.Cache.EmbeddingMaxBytes)
	engine := vectorstore.NewEngine(cache, backend, cfg.Inference.DefaultModel)
	rec := recommender.New(store, engine, orch, cfg.Inference.DefaultModel)

	var sim *simulate.Engine
	if cfg.Simulation.LibraryPath != "" {
		sim, err = simulate.Open(cfg.Simulation.LibraryPath, simulate.Queue)
		if err != nil {
			return nil, fmt.Errorf("open simulation engine: %w", err)
		}
	}

	sup := supplier.New(supplier.Config{
		BaseURL:           cfg.Supplier.BaseURL,
		RequestsPerSecond: cfg.Supplier.RequestsPerSecond,
		Burst:             cfg.Supplier.Burst,
		CacheTTL:          time.Duration(cfg.Supplier.CacheTTLSeconds) * time.Second,
		Timeout:           time.Duration(cfg.Supplier.TimeoutSeconds) * time.Second,
	})

	d := &daemon{
		cfg:      cfg,
		store:    store,
		backend:  backend,
		orch:     orch,
		rec:      rec,
		sim:      sim,
		supplier: sup,
		hub:      newWSHub(),
		log:      logger.For("csd"),
	}
	go d.hub.run()
	return d, nil
}

func (d *daemon) Close() error {
	if d.sim != nil {
		d.sim.Close()
	}
	return d.store.Close()
}

func (d *daemon) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", d.handleHealthz)
	r.GET("/components/search", d.handleSearch)
	r.GET("/supplier/search", d.handleSupplierSearch)
	r.POST("/recommend", d.handleRecommend)
	r.POST("/circuits/generate", d.handleGenerate)
	r.POST("/circuits/:id/simulate", d.handleSimulate)
	r.GET("/stream/chat", d.handleWSChat)
}

func (d *daemon) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"simulation": d.sim != nil,
	})
}

func (d *daemon) handleSearch(c *gin.Context) {
	filter := catalog.SearchFilter{
		FreeText:           c.Query("q"),
		ManufacturerPrefix: c.Query("manufacturer"),
		Limit:              20,
	}
	if cat := c.Query("category"); cat != "" {
		filter.Category = model.ParseCategory(cat)
	}
	results, err := d.store.Search(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (d *daemon) handleSupplierSearch(c *gin.Context) {
	if d.cfg.Supplier.BaseURL == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "supplier.base_url is not configured"})
		return
	}

	limit := 20
	if q := c.Query("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil {
			limit = n
		}
	}

	results, err := d.supplier.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

type recommendRequest struct {
	Requirement string   `json:"requirement" binding:"required"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	MaxPrice    float64  `json:"max_price"`
	MaxResults  int      `json:"max_results"`
	Exclude     []string `json:"exclude"`
}

func (d *daemon) handleRecommend(c *gin.Context) {
	var body recommendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := recommender.Request{
		NaturalLanguageRequirement: body.Requirement,
		Priority:                   recommender.Priority(body.Priority),
		MaxResults:                 body.MaxResults,
		ExcludePartNumbers:         body.Exclude,
	}
	if body.Category != "" {
		req.Category = model.ParseCategory(body.Category)
	}
	if body.MaxPrice > 0 {
		req.Budget = &recommender.Budget{Currency: "USD", MaxUnitPrice: body.MaxPrice}
	}

	result, err := d.rec.Recommend(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type generateRequest struct {
	Requirement string `json:"requirement" binding:"required"`
}

func (d *daemon) handleGenerate(c *gin.Context) {
	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt := generationPrompt(body.Requirement)
	netlist, err := d.orch.Generate(c.Request.Context(), prompt, llm.GenerateOptions{})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	graph, err := circuit.Parse(netlist)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "netlist": netlist})
		return
	}
	report := validate.Validate(graph)

	c.JSON(http.StatusOK, gin.H{
		"netlist":  circuit.Emit(graph),
		"findings": report.Findings,
		"valid":    report.IsValid(),
	})
}

// generationPrompt renders a requirement into the prompt sent to C3,
// asking for a SPICE-compatible netlist C6 can parse.
func generationPrompt(requirement string) string {
	return "Generate a SPICE-compatible netlist for the following circuit requirement. " +
		"Respond with only the netlist: a title line, one element line per component " +
		"(designator, nodes, value), a ground node named \"0\", and a trailing .end " +
		"directive. Do not include explanatory text.\n\nRequirement: " + requirement
}

type simulateRequest struct {
	Netlist string                    `json:"netlist" binding:"required"`
	Kind    simulate.AnalysisKind     `json:"kind" binding:"required"`
	DC      *simulate.DCParams        `json:"dc,omitempty"`
	AC      *simulate.ACParams        `json:"ac,omitempty"`
	Tran    *simulate.TransientParams `json:"transient,omitempty"`
}

func (d *daemon) handleSimulate(c *gin.Context) {
	if d.sim == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "simulation.library_path is not configured"})
		return
	}

	var body simulateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := d.sim.LoadNetlist(ctx, body.Netlist); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := d.sim.Run(ctx, simulate.RunRequest{Kind: body.Kind, DC: body.DC, AC: body.AC, Transient: body.Tran})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
