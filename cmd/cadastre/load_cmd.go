package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/cadastre/internal/batch"
	"github.com/stwalsh4118/cadastre/internal/config"
	"github.com/stwalsh4118/cadastre/internal/database"
	"github.com/stwalsh4118/cadastre/internal/discovery"
	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/metrics"
	"github.com/stwalsh4118/cadastre/internal/repository"
	"github.com/stwalsh4118/cadastre/internal/services"
)

func newLoadCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "load --xml-dir <root> [--limit N] [--threads N]",
		Short: "Extract every commune's XML documents and load them into PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateIngest(); err != nil {
				return err
			}
			log := logger.New(cfg.Server.Env)
			out := cmd.OutOrStdout()

			if info, err := os.Stat(cfg.Ingest.RootDir); err != nil || !info.IsDir() {
				return fmt.Errorf("input directory not found: %s", cfg.Ingest.RootDir)
			}

			var store repository.IngestStore
			if dryRun {
				fmt.Fprintln(out, "Dry run: records are loaded into memory only")
				store = repository.NewMemoryStore()
			} else {
				cfg.Database.EnsurePoolFor(cfg.Ingest.Workers)
				db, err := database.NewPostgresPool(cmd.Context(), cfg.Database)
				if err != nil {
					return fmt.Errorf("failed to connect to database: %w", err)
				}
				defer db.Close()
				log.Info("Database connection established", map[string]interface{}{
					"host":     cfg.Database.Host,
					"database": cfg.Database.Name,
					"pool_max": cfg.Database.PoolMax,
				})

				if err := db.Migrate(cmd.Context(), log); err != nil {
					return fmt.Errorf("failed to prepare schema: %w", err)
				}
				store = repository.NewIngestStore(db)
			}

			groups, err := discovery.FindMarkedDirs(cfg.Ingest.RootDir, cfg.Ingest.MarkerDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Found %d directories with %s/ subfolder\n", len(groups), cfg.Ingest.MarkerDir)

			var m *metrics.Metrics
			if cfg.Ingest.MetricsFile != "" {
				m = metrics.New()
			}

			runner := batch.NewRunner(store, services.NewLoader(log), log, batch.Options{
				Workers:   cfg.Ingest.Workers,
				Limit:     cfg.Ingest.Limit,
				Extension: cfg.Ingest.Extension,
				Metrics:   m,
				Out:       out,
			})
			summary, runErr := runner.Run(cmd.Context(), groups)

			fmt.Fprintln(out)
			summary.Print(out)

			if err := m.WriteTextfile(cfg.Ingest.MetricsFile); err != nil {
				log.Error("Failed to write metrics file", err, map[string]interface{}{"path": cfg.Ingest.MetricsFile})
			}

			if errors.Is(runErr, batch.ErrFilesFailed) {
				return runErr
			}
			return cmd.Context().Err()
		},
	}

	flags := cmd.Flags()
	addDatabaseFlags(flags)
	flags.String("xml-dir", "", "root directory holding one folder per commune (XML_DIR)")
	flags.Int("limit", 0, "stop after this many successfully loaded files; 0 loads all (XML_LIMIT)")
	flags.Int("threads", batch.DefaultWorkers, "number of parallel workers (WORKERS)")
	flags.String("metrics-file", "", "write run metrics in Prometheus text format to this path (METRICS_FILE)")
	flags.BoolVar(&dryRun, "dry-run", false, "extract and load into memory without a database")
	return cmd
}
