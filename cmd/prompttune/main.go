package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/longregen/prompttune/internal/adapters/tracing"
	"github.com/longregen/prompttune/internal/config"
)

func main() {
	var shutdownTracing func(context.Context) error

	rootCmd := &cobra.Command{
		Use:   "prompttune",
		Short: "prompttune - iterative prompt tuning",
		Long: `prompttune evolves candidate instructions for a fixed query.

Each round asks the model for new candidates, runs every candidate against
the query, and stores the results as the next generation of the session.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Tracing.LogLevel))); err != nil {
				level = slog.LevelInfo
			}

			result, err := tracing.Init(tracing.Config{
				ServiceName:  "prompttune",
				Environment:  cfg.Tracing.Environment,
				OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
				Stdout:       cfg.Tracing.Enabled && cfg.Tracing.OTLPEndpoint == "",
				LogLevel:     level,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize tracing: %w", err)
			}
			slog.SetDefault(result.Logger)
			shutdownTracing = result.Shutdown

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if shutdownTracing == nil {
				return nil
			}
			return shutdownTracing(context.Background())
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		newCmd(),
		tuneCmd(),
		evolveCmd(),
		showCmd(),
		listCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Current configuration:")
			fmt.Println()

			fmt.Println("LLM:")
			fmt.Printf("  Provider:    %s\n", cfg.LLM.Provider)
			fmt.Printf("  URL:         %s\n", cfg.LLM.URL)
			fmt.Printf("  Model:       %s\n", cfg.LLM.Model)
			fmt.Printf("  Max Tokens:  %d\n", cfg.LLM.MaxTokens)
			fmt.Printf("  Temperature: %.2f\n", cfg.LLM.Temperature)
			fmt.Printf("  Timeout:     %ds\n", cfg.LLM.TimeoutSeconds)
			fmt.Printf("  API Key:     %s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Println()

			fmt.Println("Database:")
			fmt.Printf("  PostgreSQL:  %s\n", maskSecret(cfg.Database.PostgresURL))
			fmt.Printf("  Status:      %s\n", boolStatus(cfg.IsDatabaseConfigured()))
			fmt.Println()

			fmt.Println("Server:")
			fmt.Printf("  Address:     %s:%d\n", cfg.Server.Host, cfg.Server.Port)
			fmt.Printf("  CORS:        %s\n", strings.Join(cfg.Server.CORSOrigins, ", "))
			fmt.Printf("  API Token:   %s\n", maskSecret(cfg.Server.APIToken))
			fmt.Println()

			fmt.Println("Tuning:")
			fmt.Printf("  Max Concurrency: %d\n", cfg.Tuning.MaxConcurrency)
			fmt.Println()

			fmt.Println("Tracing:")
			fmt.Printf("  Enabled:     %t\n", cfg.Tracing.Enabled)
			fmt.Printf("  OTLP:        %s\n", cfg.Tracing.OTLPEndpoint)
			fmt.Printf("  Environment: %s\n", cfg.Tracing.Environment)
			fmt.Printf("  Log Level:   %s\n", cfg.Tracing.LogLevel)
			fmt.Println()

			fmt.Println("Environment variables:")
			fmt.Println("  PROMPTTUNE_LLM_PROVIDER, PROMPTTUNE_LLM_URL, PROMPTTUNE_LLM_API_KEY, PROMPTTUNE_LLM_MODEL")
			fmt.Println("  PROMPTTUNE_LLM_MAX_TOKENS, PROMPTTUNE_LLM_TEMPERATURE, PROMPTTUNE_LLM_TIMEOUT_SECONDS")
			fmt.Println("  PROMPTTUNE_POSTGRES_URL, PROMPTTUNE_MAX_CONCURRENCY")
			fmt.Println("  PROMPTTUNE_SERVER_HOST, PROMPTTUNE_SERVER_PORT, PROMPTTUNE_CORS_ORIGINS, PROMPTTUNE_API_TOKEN")
			fmt.Println("  PROMPTTUNE_TRACING_ENABLED, PROMPTTUNE_OTLP_ENDPOINT, PROMPTTUNE_ENVIRONMENT, PROMPTTUNE_LOG_LEVEL")

			return nil
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("prompttune %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}
