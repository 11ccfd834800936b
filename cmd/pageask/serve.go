package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageask/internal/config"
	"github.com/nao1215/pageask/internal/log"
	"github.com/nao1215/pageask/internal/metrics"
	"github.com/nao1215/pageask/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question answering pipeline over HTTP",
		Long: `Serve starts an HTTP server exposing the pipeline.

Endpoints:
  POST /ask      {"url": "...", "query": "..."} -> answer, reasoning, html_element
  GET  /health   liveness probe
  GET  /metrics  Prometheus metrics

Each request opens its own browser session, so concurrent requests do not
share cookies or page state. The server shuts down gracefully on SIGINT or
SIGTERM.

Examples:
  # Listen on the default address (:8000)
  pageask serve

  # Listen on localhost only and log JSON lines
  pageask serve --listen 127.0.0.1:9000 --log-json

  # Ask a question
  curl -s localhost:8000/ask -d '{"url":"https://example.com","query":"What is this page about?"}'`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("listen", config.DefaultListenAddress,
		"Address to listen on")
	cmd.Flags().Bool("log-json", false,
		"Write logs as JSON lines")

	addModelFlags(cmd)
	addFetchFlags(cmd)

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newServerLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	a, err := newApp(ctx, cfg, logger, collector)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.pipeline,
		server.WithLogger(logger),
		server.WithMetrics(collector),
	)
	return srv.ListenAndServe(ctx, cfg.ListenAddress)
}

func newServerLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return log.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	return log.NewServerLogger(os.Stderr, cfg.Verbose)
}
