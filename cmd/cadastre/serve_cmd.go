package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/cadastre/internal/config"
	"github.com/stwalsh4118/cadastre/internal/database"
	"github.com/stwalsh4118/cadastre/internal/handlers"
	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/metrics"
	"github.com/stwalsh4118/cadastre/internal/middleware"
	"github.com/stwalsh4118/cadastre/internal/repository"
	"github.com/stwalsh4118/cadastre/internal/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [--listen PORT]",
		Short: "Serve the loaded records over a read-only HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			log := logger.New(cfg.Server.Env)
			log.Info("Starting cadastre API", map[string]interface{}{
				"version":     handlers.APIVersion,
				"environment": cfg.Server.Env,
				"port":        cfg.Server.Port,
			})

			ctx := cmd.Context()
			db, err := database.NewPostgresPool(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			m := metrics.New().WithRuntime()
			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           newRouter(cfg, log, db, m),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("Server listening", map[string]interface{}{"addr": srv.Addr})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
			}

			log.Info("Shutting down server...", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("Server forced to shutdown", err, map[string]interface{}{
					"timeout": shutdownTimeout.String(),
				})
			}
			log.Info("Server exited", nil)
			return nil
		},
	}

	addDatabaseFlags(cmd.Flags())
	cmd.Flags().String("listen", "", "HTTP port (PORT)")
	return cmd
}

// newRouter wires middleware in order RequestID, Logger, Recovery, Metrics,
// CORS, then the health, metrics and cadastre routes.
func newRouter(cfg *config.Config, log *logger.Logger, db *database.Database, m *metrics.Metrics) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	health := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", health.Health)
	router.GET("/health/ready", health.Ready)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/info", health.Info)

	service := services.NewCadastreService(repository.NewCadastreRepository(db), log)
	handlers.NewCadastreHandler(service).Register(v1)
	return router
}
