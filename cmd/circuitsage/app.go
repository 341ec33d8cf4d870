package main

import (
	"fmt"
	"time"

	"github.com/kallenvale/circuitsage/internal/catalog"
	"github.com/kallenvale/circuitsage/internal/config"
	"github.com/kallenvale/circuitsage/internal/llm"
	"github.com/kallenvale/circuitsage/internal/logger"
	"github.com/kallenvale/circuitsage/internal/recommender"
	"github.com/kallenvale/circuitsage/internal/simulate"
	"github.com/kallenvale/circuitsage/internal/supplier"
	"github.com/kallenvale/circuitsage/internal/vectorstore"
)

// app wires together the core packages (C1/C2/C3/C5/C8) for a single CLI
// invocation, the way cmd/wt's clientFromConfig built a thin client from
// config — here there is no daemon to dial, so the CLI builds the core
// stack directly in-process.
type app struct {
	cfg      *config.Config
	store    *catalog.Store
	backend  *llm.LocalHTTP
	orch     *llm.Orchestrator
	engine   *vectorstore.Engine
	rec      *recommender.Recommender
	supplier *supplier.Client
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath, "")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

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

	sup := supplier.New(supplier.Config{
		BaseURL:           cfg.Supplier.BaseURL,
		RequestsPerSecond: cfg.Supplier.RequestsPerSecond,
		Burst:             cfg.Supplier.Burst,
		CacheTTL:          time.Duration(cfg.Supplier.CacheTTLSeconds) * time.Second,
		Timeout:           time.Duration(cfg.Supplier.TimeoutSeconds) * time.Second,
	})

	return &app{cfg: cfg, store: store, backend: backend, orch: orch, engine: engine, rec: rec, supplier: sup}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) openSimulationEngine() (*simulate.Engine, error) {
	if a.cfg.Simulation.LibraryPath == "" {
		return nil, fmt.Errorf("simulation.library_path is not configured")
	}
	return simulate.Open(a.cfg.Simulation.LibraryPath, simulate.Queue)
}

var log = logger.For("circuitsage")
