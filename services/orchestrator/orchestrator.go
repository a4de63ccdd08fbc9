// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator provides the core service desk orchestrator for
// AleutianDesk.
//
// This package contains the main Service type that coordinates all
// components of the desk: HTTP routing, the safety gate, the ticket
// pipeline, knowledge storage, runbook execution, and observability
// infrastructure.
//
// # Usage
//
//	cfg := orchestrator.Config{Port: 12210}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianDesk/pkg/storage/badgerdb"
	"github.com/AleutianAI/AleutianDesk/services/knowledge"
	"github.com/AleutianAI/AleutianDesk/services/llm"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/observability"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/pipeline"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/router"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/routes"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/specialist"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/store"
	"github.com/AleutianAI/AleutianDesk/services/runbook"
	"github.com/AleutianAI/AleutianDesk/services/safety"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the desk orchestrator service.
//
// # Description
//
// Service abstracts the orchestrator lifecycle, enabling testing and
// alternative implementations. Run() blocks and should only be called once
// per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for integration testing.
	// Callers must not modify routes after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds orchestrator configuration options.
//
// # Description
//
// Config centralizes all configuration for the desk service. Values can be
// populated from environment variables, config files, or programmatically
// for testing. All fields have sensible defaults.
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Custom port and LLM backend
//	cfg := Config{
//	    Port:       8080,
//	    LLMBackend: "openai",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12210
	Port int

	// LLMBackend specifies the LLM provider for the categorization oracle,
	// the jailbreak judge, and specialist answer composition.
	// Valid values: "ollama", "openai", "none"
	// "none" runs keyword-only categorization and template answers.
	// Default: "ollama"
	LLMBackend string

	// DataDir is the directory for the embedded BadgerDB holding tickets,
	// conversation traces, feedback, and the safety audit log.
	// Default: "./data/desk"
	DataDir string

	// WeaviateURL is the Weaviate vector database URL for the knowledge
	// base. If empty, a seeded in-memory store is used instead.
	// Example: "http://localhost:8080"
	WeaviateURL string

	// RunbookGatewayURL is the base URL of the runbook execution gateway.
	// If empty, runbooks execute against the built-in local executor.
	RunbookGatewayURL string

	// VocabPath is an optional router vocabulary override file. When set,
	// it is loaded instead of the embedded vocabulary and hot-reloaded on
	// change.
	VocabPath string

	// SeverityThreshold is the meets-or-exceeds moderation blocking
	// threshold on the 0-7 scale. Default: 4
	SeverityThreshold int

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "aleutian-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	// Default: uses GIN_MODE env var or "debug"
	GinMode string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Description
//
// service coordinates:
//   - HTTP routing via Gin
//   - The three-layer safety gate with its Badger audit log
//   - The keyword + oracle ticket router
//   - The five domain specialists over the knowledge base and runbooks
//   - Confidence aggregation and the ticket state machine
//   - OpenTelemetry tracing and Prometheus metrics
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	db            *badger.DB
	kb            knowledge.Store
	orch          *pipeline.Orchestrator
	audit         *safety.BadgerAuditLog
	oracle        llm.LLMClient
	tracerCleanup func(context.Context)
	gcCancel      context.CancelFunc
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new desk orchestrator Service with the given configuration.
//
// # Description
//
// New initializes all orchestrator components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing and Prometheus metrics
//  3. Opens the embedded BadgerDB and starts value log GC
//  4. Creates the knowledge store (Weaviate or seeded in-memory)
//  5. Creates the LLM oracle based on backend type
//  6. Wires the safety gate, router, specialists, and pipeline
//  7. Sets up HTTP routes
//
// # Outputs
//
//   - Service: Ready-to-run orchestrator service
//   - error: Non-nil if initialization fails
//
// # Assumptions
//
//   - Environment variables are set for the chosen LLM provider
//   - Network is available for external service connections
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if s.config.EnableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for the ticket pipeline")
	}

	if err := s.initStorage(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := s.initKnowledge(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize knowledge store: %w", err)
	}

	if err := s.initOracle(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM oracle: %w", err)
	}

	if err := s.initPipeline(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error. Cleanup is
// automatic on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting desk orchestrator server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12210
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data/desk"
	}
	if cfg.SeverityThreshold == 0 {
		cfg.SeverityThreshold = safety.DefaultSeverityThreshold
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "aleutian-otel-collector:4317"
	}
	cfg.EnableMetrics = true
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing over an insecure
// gRPC connection (appropriate for internal networks).
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("desk-orchestrator")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initStorage opens the embedded BadgerDB with durable writes and starts
// the value log GC loop.
func (s *service) initStorage() error {
	dbCfg := badgerdb.DefaultConfig()
	dbCfg.Path = s.config.DataDir
	dbCfg.Logger = slog.Default()

	db, err := badgerdb.Open(dbCfg)
	if err != nil {
		return err
	}
	s.db = db

	gcCtx, cancel := context.WithCancel(context.Background())
	s.gcCancel = cancel
	go badgerdb.RunGC(gcCtx, db, dbCfg, slog.Default())

	slog.Info("Ticket storage initialized", "path", s.config.DataDir)
	return nil
}

// initKnowledge creates the knowledge store. With a Weaviate URL the store
// is backed by BM25 chunk search; otherwise a seeded in-memory store keeps
// the desk functional in lightweight deployments.
func (s *service) initKnowledge() error {
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("Weaviate URL not configured, using seeded in-memory knowledge base")
		s.kb = knowledge.NewMemoryStore(knowledge.SeedArticles())
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		return fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	ws := knowledge.NewWeaviateStore(client)
	if err := ws.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure knowledge schema: %w", err)
	}
	s.kb = ws
	slog.Info("Weaviate knowledge store initialized", "url", weaviateURL)
	return nil
}

// initOracle creates the LLM client shared by the categorizer, the
// jailbreak judge, and the specialists. Backend "none" leaves the oracle
// nil: keyword-only categorization with template answers.
func (s *service) initOracle() error {
	if s.config.LLMBackend == "none" {
		slog.Warn("LLM backend disabled, running keyword-only categorization")
		return nil
	}

	var err error
	switch s.config.LLMBackend {
	case "openai":
		s.oracle, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		s.oracle, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	default:
		slog.Warn("Unknown LLM backend, defaulting to ollama", "backend", s.config.LLMBackend)
		s.oracle, err = llm.NewOllamaClient()
	}
	return err
}

// initPipeline wires the safety gate, router, specialists, and confidence
// aggregation into the ticket pipeline.
func (s *service) initPipeline() error {
	patterns, err := safety.LoadEmbeddedPatterns()
	if err != nil {
		return fmt.Errorf("failed to load safety patterns: %w", err)
	}

	// The moderation oracle is optional: without an OpenAI key the gate
	// runs local checks only and marks verdicts with used_fallback.
	var moderator safety.ModerationOracle
	if m, err := safety.NewOpenAIModerator(); err != nil {
		slog.Warn("Moderation oracle unavailable, safety gate will use local checks only", "error", err)
	} else {
		moderator = m
	}

	var judge safety.JailbreakJudge
	if s.oracle != nil {
		judge = safety.NewLLMJailbreakJudge(s.oracle)
	}

	s.audit = safety.NewBadgerAuditLog(s.db)
	gateCfg := safety.DefaultGateConfig()
	gateCfg.SeverityThreshold = s.config.SeverityThreshold
	gate := safety.NewGate(patterns, moderator, judge, s.audit, gateCfg)

	vocab, err := s.loadVocab()
	if err != nil {
		return err
	}
	categorizer := router.NewCategorizer(vocab, s.oracle)

	var exec runbook.Executor
	if s.config.RunbookGatewayURL != "" {
		exec, err = runbook.NewHTTPExecutor(s.config.RunbookGatewayURL)
		if err != nil {
			return fmt.Errorf("failed to create runbook executor: %w", err)
		}
		slog.Info("Using runbook gateway", "url", s.config.RunbookGatewayURL)
	} else {
		exec = &runbook.LocalExecutor{}
		slog.Info("Runbook gateway not configured, using local executor")
	}
	registry := specialist.NewRegistry(s.kb, exec, s.oracle)

	var metrics *observability.PipelineMetrics
	if s.config.EnableMetrics {
		metrics = observability.DefaultMetrics
	}
	s.orch = pipeline.New(store.NewStore(s.db), gate, categorizer, registry, metrics, pipeline.LogNotifier{})
	return nil
}

// loadVocab loads the router vocabulary, preferring the override file and
// hot-reloading it on change.
func (s *service) loadVocab() (*router.VocabStore, error) {
	if s.config.VocabPath == "" {
		return router.LoadEmbeddedVocab()
	}
	vocab, err := router.LoadVocabFile(s.config.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary override: %w", err)
	}
	if err := vocab.Watch(context.Background(), s.config.VocabPath); err != nil {
		slog.Warn("Vocabulary hot reload unavailable", "error", err)
	}
	return vocab, nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("desk-orchestrator"))

	routes.SetupRoutes(s.router, s.orch, s.kb, s.audit)
}

// cleanup releases all resources held by the service. Called when Run()
// exits or on initialization failure.
func (s *service) cleanup() {
	if s.gcCancel != nil {
		s.gcCancel()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Warn("Badger close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
