package main

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/longregen/prompttune/internal/adapters/id"
	"github.com/longregen/prompttune/internal/adapters/postgres"
	"github.com/longregen/prompttune/internal/application/services"
	"github.com/longregen/prompttune/internal/application/usecases"
	"github.com/longregen/prompttune/internal/config"
	"github.com/longregen/prompttune/internal/llm"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfg *config.Config

// app holds the wired use cases shared by the server and the CLI commands
type app struct {
	pool     *pgxpool.Pool
	llm      *llm.Service
	sessions *usecases.SessionManager
	lineage  *usecases.LineageController
}

func (a *app) Close() {
	a.pool.Close()
}

// initDB initializes a database connection pool
func initDB(ctx context.Context) (*pgxpool.Pool, error) {
	if !cfg.IsDatabaseConfigured() {
		return nil, fmt.Errorf("PostgreSQL connection required. Set PROMPTTUNE_POSTGRES_URL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Force UTC timezone to prevent timezone-related issues with TIMESTAMP columns
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"
	poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}

// newApp connects to the database and builds the tuning use cases
func newApp(ctx context.Context) (*app, error) {
	pool, err := initDB(ctx)
	if err != nil {
		return nil, err
	}

	llmService, err := llm.New(llm.Options{
		Provider:    cfg.LLM.Provider,
		URL:         cfg.LLM.URL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create llm service: %w", err)
	}

	sessionRepo := postgres.NewSessionRepository(pool)
	generationRepo := postgres.NewGenerationRepository(pool)
	txManager := postgres.NewTransactionManager(pool)
	idGen := id.New()

	answerFetcher := services.NewAnswerFetcher(llmService, cfg.Tuning.MaxConcurrency)
	evolver := services.NewPromptEvolver(llmService)

	return &app{
		pool: pool,
		llm:  llmService,
		sessions: usecases.NewSessionManager(
			sessionRepo,
			answerFetcher,
			txManager,
			idGen,
		),
		lineage: usecases.NewLineageController(
			sessionRepo,
			generationRepo,
			evolver,
			answerFetcher,
			txManager,
			idGen,
		),
	}, nil
}

// maskSecret masks a secret string for display
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// boolStatus returns a status string for a boolean
func boolStatus(b bool) string {
	if b {
		return "configured"
	}
	return "not configured"
}
