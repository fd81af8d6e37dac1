// opsctl is the operations CLI for the opsdesk backend: schema migration and
// sequence-counter backfill.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"opsdesk/internal/config"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/repository/postgres"
)

var schemaPath string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "opsctl",
		Short: "Operations CLI for the opsdesk backend",
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE:  runMigrate,
	}
	migrateCmd.Flags().StringVarP(&schemaPath, "schema", "f", "migrations/schema.sql", "path to schema file")

	seedCmd := &cobra.Command{
		Use:   "seed-counters [year]",
		Short: "Backfill sequence counters from existing display IDs",
		Long: `Creates the per-(kind, year) sequence counter rows, seeding each from the
highest display ID already recorded. Counters that already exist are left
alone. Defaults to the current year.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSeedCounters,
	}

	rootCmd.AddCommand(migrateCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*config.Config, *postgres.RepositoryConfig, error) {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	return cfg, &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
	}, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, repoConfig, err := connect(ctx)
	if err != nil {
		return err
	}
	defer repoConfig.Pool.Close()

	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	sql := strings.ReplaceAll(string(schema), "{{prefix}}", cfg.TablePrefix)
	if _, err := repoConfig.Pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	fmt.Printf("schema applied with prefix %q\n", cfg.TablePrefix)
	return nil
}

func runSeedCounters(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	year := time.Now().UTC().Year()
	if len(args) == 1 {
		if _, err := fmt.Sscanf(args[0], "%d", &year); err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
	}

	_, repoConfig, err := connect(ctx)
	if err != nil {
		return err
	}
	defer repoConfig.Pool.Close()

	docRepo := postgres.NewDocumentRepository(repoConfig)
	seqRepo := postgres.NewSequenceRepository(repoConfig)

	for _, kind := range models.Kinds() {
		seed, err := docRepo.MaxSequence(ctx, kind, year)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}

		created, err := seqRepo.Create(ctx, kind, year, seed)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}

		if created {
			fmt.Printf("%s/%d: counter created at %d\n", kind, year, seed)
		} else {
			counter, err := seqRepo.Get(ctx, kind, year)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			fmt.Printf("%s/%d: counter already at %d, left alone\n", kind, year, counter.LastValue)
		}
	}

	return nil
}
