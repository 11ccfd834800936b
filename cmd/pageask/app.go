package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/pageask/internal/analyzer"
	"github.com/nao1215/pageask/internal/browser"
	"github.com/nao1215/pageask/internal/captcha"
	"github.com/nao1215/pageask/internal/config"
	"github.com/nao1215/pageask/internal/database"
	"github.com/nao1215/pageask/internal/llm"
	"github.com/nao1215/pageask/internal/metrics"
	"github.com/nao1215/pageask/internal/pipeline"
	"github.com/nao1215/pageask/internal/socks"
)

// app holds the pipeline and every resource it depends on.
type app struct {
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	closers  []func() error
}

// newApp wires the proxy, fetcher, model client, history database and
// pipeline described by cfg. collector may be nil. The caller must Close
// the app.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	fetchOpts := []browser.Option{browser.WithLogger(logger)}
	proxy, err := a.startProxy(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if proxy != nil {
		fetchOpts = append(fetchOpts, browser.WithProxy(proxy))
	}
	fetcher := browser.NewFetcher(cfg, fetchOpts...)

	client := llm.New(llm.Options{
		BaseURL:     cfg.ModelBaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.ModelTimeout,
		Logger:      logger,
	})
	an := analyzer.New(client,
		analyzer.WithMaxHTMLChars(cfg.MaxHTMLChars),
		analyzer.WithModelName(cfg.Model),
		analyzer.WithLogger(logger),
	)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithModelName(cfg.Model),
		pipeline.WithMetrics(collector),
	}
	if cfg.MaxCaptchaAttempts > 0 {
		opts = append(opts, pipeline.WithCaptchaSolver(captcha.NewSolver(client), cfg.MaxCaptchaAttempts))
	}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		opts = append(opts, pipeline.WithHistory(db))
		logger.Debug("history database opened", "path", db.Path())
	}

	a.pipeline = pipeline.New(pipeline.BrowserOpener(fetcher), an, opts...)

	logger.Info("pipeline ready",
		"engine", fetcher.Engine(),
		"model", cfg.Model,
		"baseURL", cfg.ModelBaseURL,
		"captchaAttempts", cfg.MaxCaptchaAttempts,
		"saveToDB", cfg.SaveToDB,
	)
	return a, nil
}

// startProxy returns the SOCKS5 client pages should be fetched through, or
// nil for a direct connection.
func (a *app) startProxy(ctx context.Context, cfg *config.Config) (*socks.Client, error) {
	switch {
	case cfg.UseTor:
		t, err := socks.StartTor(ctx, cfg.TorStartupTimeout, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, t.Stop)
		return t.Client()

	case cfg.ProxyAddress != "":
		client, err := socks.NewClient(cfg.ProxyAddress)
		if err != nil {
			return nil, err
		}
		if err := client.CheckConnection(ctx).Err(); err != nil {
			return nil, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				err, cfg.ProxyAddress)
		}
		a.logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		return client, nil
	}
	return nil, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("failed to release resources", "error", err)
	}
}
