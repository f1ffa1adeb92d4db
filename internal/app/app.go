// Package app initializes and orchestrates the main components of the review
// agent. It wires together the configuration, server, and services.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/codacore/review-agent/internal/config"
	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/diffctx"
	"github.com/codacore/review-agent/internal/github"
	"github.com/codacore/review-agent/internal/gitutil"
	"github.com/codacore/review-agent/internal/jobs"
	"github.com/codacore/review-agent/internal/llm"
	"github.com/codacore/review-agent/internal/runner"
	"github.com/codacore/review-agent/internal/server"
	"github.com/codacore/review-agent/internal/testrun"
)

// App holds the main application components for webhook server mode.
type App struct {
	cfg        *config.Config
	server     *server.Server
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewApp sets up the webhook server with all its dependencies.
func NewApp(cfg *config.Config, reviewJob core.Job, logger *slog.Logger) (*App, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	dispatcher := jobs.NewDispatcher(reviewJob, cfg.MaxWorkers, logger)
	httpServer := server.NewServer(cfg, dispatcher, logger)

	logger.Info("review agent initialized",
		"server_port", cfg.Server.Port,
		"trigger", cfg.Review.Trigger,
		"max_workers", cfg.MaxWorkers)

	return &App{
		cfg:        cfg,
		server:     httpServer,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// NewReviewJob assembles one fully wired review job. Both the server mode
// dispatcher and the one-shot CLI run the same job.
func NewReviewJob(cfg *config.Config, logger *slog.Logger) (core.Job, error) {
	run := runner.NewExecRunner(logger)
	materializer := gitutil.NewMaterializer(run, logger)
	extractor := diffctx.NewExtractor(run, logger)
	tests := testrun.New(run, logger)

	generator, err := NewGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}

	clients := func(ctx context.Context, installationID int64) (github.Client, string, error) {
		return github.NewClientForEvent(ctx, cfg, installationID, logger)
	}

	return jobs.NewReviewJob(cfg, clients, materializer, extractor, tests, generator, logger), nil
}

// NewGenerator builds the review generator over the completion API.
func NewGenerator(cfg *config.Config, logger *slog.Logger) (*llm.Generator, error) {
	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded prompts: %w", err)
	}

	completion := llm.NewCompletionClient(cfg.LLM, newCompletionHTTPClient(), logger)
	return llm.NewGenerator(completion, promptMgr, logger), nil
}

// newCompletionHTTPClient creates an HTTP client with generous timeouts.
// Completion calls on large diffs can take minutes.
func newCompletionHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}

// Start runs the HTTP server.
func (a *App) Start() error {
	return a.server.Start()
}

// Stop shuts down the application cleanly: the HTTP server first, so no new
// events arrive, then the dispatcher, letting in-flight reviews finish.
func (a *App) Stop() error {
	a.logger.Info("shutting down review agent")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("review agent stopped")
	return nil
}
