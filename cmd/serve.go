package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sitescope/internal/api"
	"sitescope/internal/api/handler/v1handler"
	"sitescope/internal/clock"
	"sitescope/internal/config"
	"sitescope/internal/crawl"
	"sitescope/internal/project"
	"sitescope/internal/worker"
	"sitescope/pkg/crawlagent/httpagent"
	"sitescope/pkg/logger"
	"sitescope/pkg/metrics"
	"sitescope/pkg/storage/postgres"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) func(ctx context.Context) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...")
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func setupWorkers(ctx context.Context,
	cfg *config.Config,
	strg *postgres.PgSQL,
	crawls crawl.Service,
	agent *httpagent.Client,
) func(ctx context.Context) {
	riverClient, err := worker.Start(ctx, strg.Pool, strg, crawls, agent, worker.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not start workers", zap.Error(err))
	}

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping workers...")
		if err := riverClient.Stop(ctx); err != nil {
			logger.Error(ctx, "could not stop workers", zap.Error(err))
		}
	}
}

// serveCommand constructs the 'serve' subcommand that runs the API server and
// the background crawl workers until interrupted.
func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and background workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

			metrics.Init()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			clk := clock.NewSystem()
			agent := httpagent.New(
				&http.Client{Timeout: cfg.Crawler.AgentRequestTimeout},
				cfg.Crawler.AgentURL,
				cfg.Crawler.AgentToken,
			)
			crawls := crawl.New(strg, clk, crawl.NewOptions(cfg))
			projects := project.New(strg, clk, project.NewOptions(cfg))

			stopWorkers := setupWorkers(ctx, cfg, strg, crawls, agent)
			stopWebserver := setupServer(ctx, cfg, api.Deps{
				Deps: v1handler.Deps{
					Projects: projects,
					Crawls:   crawls,
				},
			})

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			stopWorkers(shutdownCtx)
		},
	}

	return cmd
}
