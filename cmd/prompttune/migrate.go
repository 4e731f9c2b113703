package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/longregen/prompttune/migrations"
)

// migrateCmd applies the embedded schema
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  `Apply the embedded PostgreSQL migrations. Every migration is idempotent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			ms, err := migrations.Up()
			if err != nil {
				return fmt.Errorf("failed to read migrations: %w", err)
			}

			return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
				for _, m := range ms {
					if _, err := tx.Exec(ctx, m.SQL); err != nil {
						return fmt.Errorf("migration %s: %w", m.Name, err)
					}
					log.Printf("Applied migration %s", m.Name)
				}
				return nil
			})
		},
	}
}
