// Command server is the outreach engine's process entrypoint: it wires the
// storage backend, the provider adapter, the node executor registry, and
// the campaign orchestrator behind a small HTTP control surface (operator
// signals, status query, Prometheus metrics). Flags override env-loaded
// config; shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/smilemakc/outreach-engine/internal/config"
	"github.com/smilemakc/outreach-engine/internal/executor"
	"github.com/smilemakc/outreach-engine/internal/generator"
	"github.com/smilemakc/outreach-engine/internal/ledger"
	"github.com/smilemakc/outreach-engine/internal/logging"
	"github.com/smilemakc/outreach-engine/internal/monitoring"
	"github.com/smilemakc/outreach-engine/internal/orchestrator"
	"github.com/smilemakc/outreach-engine/internal/provider"
	"github.com/smilemakc/outreach-engine/internal/quota"
	"github.com/smilemakc/outreach-engine/internal/runtime"
	"github.com/smilemakc/outreach-engine/internal/storage"
	"github.com/smilemakc/outreach-engine/internal/workflow"
)

func main() {
	var (
		port         = flag.String("port", "", "HTTP port (overrides config)")
		storeBackend = flag.String("store", "", "Storage backend: memory or postgres (overrides config)")
	)
	flag.Parse()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}
	if *storeBackend != "" {
		cfg.StoreBackend = *storeBackend
	}

	log := logging.Setup(cfg.LogLevel, cfg.LogPretty)
	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Msg("starting outreach engine")

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	execLogger := monitoring.NewZerologExecutionLogger(&log)

	campaigns, leads, accounts, ledgerStore, closeDB, err := buildStores(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer closeDB()

	providerClient := provider.New(cfg.ProviderBaseURL, cfg.ProviderToken, cfg.ProviderRateLimit, cfg.ProviderBurst)

	var gen generator.Generator
	tmpl := generator.NewTemplateGenerator("Great Info {{first_name}}")
	if cfg.OpenAIAPIKey != "" {
		gen = generator.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.GeneratorModel, &log)
	} else {
		gen = tmpl
	}

	rt := runtime.NewLocalRuntime()
	quotaGate := quota.NewGate(campaigns)
	retryPolicy := runtime.DefaultRetryPolicy()

	registry := executor.NewRegistry(executor.Deps{
		Provider:  providerClient,
		Generator: gen,
		Quota:     quotaGate,
		Ledger:    ledgerStore,
		Runtime:   rt,
		Retry:     retryPolicy,
		Metrics:   metrics,
	})

	leadWorkflow := workflow.New(workflow.Deps{
		Executors:  registry,
		Ledger:     ledgerStore,
		Runtime:    rt,
		Leads:      leads,
		Accounts:   accounts,
		ExecLogger: execLogger,
		Metrics:    metrics,
	})

	mgr := newCampaignManager(campaignManagerDeps{
		Campaigns:          campaigns,
		Leads:              leads,
		Ledger:             ledgerStore,
		Workflow:           leadWorkflow,
		Runtime:            rt,
		MaxConcurrentLeads: cfg.MaxConcurrentLeads,
		LeadStaggerMs:      cfg.LeadStaggerMs,
		Logger:             &log,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /campaigns/{id}/start", mgr.handleStart)
	mux.HandleFunc("POST /campaigns/{id}/pause", mgr.handlePause)
	mux.HandleFunc("POST /campaigns/{id}/resume", mgr.handleResume)
	mux.HandleFunc("POST /campaigns/{id}/stop", mgr.handleStop)
	mux.HandleFunc("GET /campaigns/{id}/status", mgr.handleStatus)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quitCh := make(chan os.Signal, 1)
	signal.Notify(quitCh, syscall.SIGINT, syscall.SIGTERM)
	<-quitCh

	log.Info().Msg("shutting down")
	mgr.stopAll(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("exited gracefully")
}

// buildStores wires the Campaign/Lead/ConnectedAccount/StepLedger stores
// for cfg.StoreBackend: "postgres" (github.com/uptrace/bun over
// cfg.DatabaseDSN) or "memory" (in-process, state lost on restart; the
// default so the binary runs with zero external dependencies out of the
// box).
func buildStores(cfg *config.Config, log *zerolog.Logger) (storage.CampaignStore, storage.LeadStore, storage.ConnectedAccountStore, ledger.Store, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case "postgres":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DatabaseDSN)))
		db := bun.NewDB(sqldb, pgdialect.New())

		campaigns := storage.NewBunCampaignStore(db)
		leads := storage.NewBunLeadStore(db)
		accounts := storage.NewBunConnectedAccountStore(db)
		ledgerStore := ledger.NewBunStore(db)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := campaigns.InitSchema(ctx); err != nil {
			return nil, nil, nil, nil, noop, fmt.Errorf("init campaigns schema: %w", err)
		}
		if err := leads.InitSchema(ctx); err != nil {
			return nil, nil, nil, nil, noop, fmt.Errorf("init leads schema: %w", err)
		}
		if err := ledgerStore.InitSchema(ctx); err != nil {
			return nil, nil, nil, nil, noop, fmt.Errorf("init step ledger schema: %w", err)
		}
		log.Info().Msg("using postgres-backed storage (bun)")
		return campaigns, leads, accounts, ledgerStore, func() { _ = sqldb.Close() }, nil
	default:
		log.Info().Msg("using in-memory storage (state lost on restart)")
		return storage.NewMemoryCampaignStore(), storage.NewMemoryLeadStore(), storage.NewMemoryConnectedAccountStore(), ledger.NewMemoryStore(), noop, nil
	}
}

// campaignManagerDeps bundles everything campaignManager needs to spin up
// an Orchestrator per campaign on demand.
type campaignManagerDeps struct {
	Campaigns          storage.CampaignStore
	Leads              storage.LeadStore
	Ledger             ledger.Store
	Workflow           *workflow.LeadWorkflow
	Runtime            runtime.Runtime
	MaxConcurrentLeads int
	LeadStaggerMs      int
	Logger             *zerolog.Logger
}

// campaignManager is the HTTP control surface's bridge to the orchestrator
// package: one running Orchestrator per started campaign, guarded by a
// mutex since handlers run concurrently across requests.
type campaignManager struct {
	deps campaignManagerDeps

	mu   sync.Mutex
	runs map[string]*orchestrator.Orchestrator
}

func newCampaignManager(deps campaignManagerDeps) *campaignManager {
	return &campaignManager{deps: deps, runs: make(map[string]*orchestrator.Orchestrator)}
}

func (m *campaignManager) handleStart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	m.mu.Lock()
	if _, exists := m.runs[id]; exists {
		m.mu.Unlock()
		writeError(w, http.StatusConflict, "campaign already started")
		return
	}
	orch := orchestrator.New(orchestrator.Deps{
		Campaigns:          m.deps.Campaigns,
		Leads:              m.deps.Leads,
		Workflow:           m.deps.Workflow,
		Runtime:            m.deps.Runtime,
		MaxConcurrentLeads: m.deps.MaxConcurrentLeads,
		LeadStaggerMs:      m.deps.LeadStaggerMs,
	}, id)
	m.runs[id] = orch
	m.mu.Unlock()

	go func() {
		if err := orch.Run(context.Background()); err != nil {
			m.deps.Logger.Error().Err(err).Str("campaign_id", id).Msg("campaign orchestrator exited with error")
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (m *campaignManager) handlePause(w http.ResponseWriter, r *http.Request) {
	orch, ok := m.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "campaign not running")
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	orch.Pause(body.Reason)
	w.WriteHeader(http.StatusNoContent)
}

func (m *campaignManager) handleResume(w http.ResponseWriter, r *http.Request) {
	orch, ok := m.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "campaign not running")
		return
	}
	orch.Resume()
	w.WriteHeader(http.StatusNoContent)
}

func (m *campaignManager) handleStop(w http.ResponseWriter, r *http.Request) {
	orch, ok := m.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "campaign not running")
		return
	}
	var body struct {
		CompleteCurrent bool   `json:"completeCurrent"`
		Reason          string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	orch.Stop(body.CompleteCurrent)
	w.WriteHeader(http.StatusNoContent)
}

func (m *campaignManager) handleStatus(w http.ResponseWriter, r *http.Request) {
	orch, ok := m.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "campaign not running")
		return
	}
	status := orch.Status()

	// The verdict breakdown is a point-in-time aggregation over the step
	// ledger, which already records one verdict per executed step.
	verdicts := map[string]int{}
	if steps, err := m.deps.Ledger.ListSteps(r.Context(), r.PathValue("id")); err == nil {
		for _, s := range steps {
			if v, ok := s.Result()["verdict"].(string); ok && v != "" {
				verdicts[v]++
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     status.CampaignStatus,
		"totalLeads": status.Counters.TotalLeads,
		"processed":  status.Counters.Processed,
		"success":    status.Counters.Success,
		"fail":       status.Counters.Fail,
		"verdicts":   verdicts,
		"startTime":  status.StartTime,
		"endTime":    status.EndTime,
	})
}

func (m *campaignManager) get(id string) (*orchestrator.Orchestrator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orch, ok := m.runs[id]
	return orch, ok
}

// stopAll signals every running campaign's orchestrator on process
// shutdown.
func (m *campaignManager) stopAll(completeCurrent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, orch := range m.runs {
		orch.Stop(completeCurrent)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
