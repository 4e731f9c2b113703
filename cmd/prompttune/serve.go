package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/longregen/prompttune/internal/adapters/http"
	"github.com/longregen/prompttune/internal/adapters/http/handlers"
)

// serveCmd starts the HTTP API server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the prompttune HTTP API server.

Required configuration:
  - PostgreSQL database (PROMPTTUNE_POSTGRES_URL)
  - LLM endpoint (PROMPTTUNE_LLM_URL, PROMPTTUNE_LLM_MODEL)

Optional:
  - Bearer token for /api/v1 (PROMPTTUNE_API_TOKEN)
  - OTLP collector (PROMPTTUNE_OTLP_ENDPOINT)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// runServer initializes and starts the HTTP API server
func runServer(ctx context.Context) error {
	log.Println("Starting prompttune API server...")
	log.Printf("  HTTP:     http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("  LLM:      %s (%s, %s)", cfg.LLM.URL, cfg.LLM.Provider, cfg.LLM.Model)
	if cfg.Server.APIToken == "" {
		log.Println("  Auth:     disabled")
	}
	log.Println()

	log.Println("Connecting to PostgreSQL...")
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Println("Database connection established")

	handlers.Version = version
	server := http.NewServer(cfg, a.sessions, a.lineage, a.pool, a.llm)

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Shutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Println("Server stopped")
		return nil
	}
}
