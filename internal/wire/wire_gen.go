// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/codacore/review-agent/internal/app"
	"github.com/codacore/review-agent/internal/config"
	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/logger"
)

// InitializeApp creates and wires all application dependencies for webhook
// server mode.
func InitializeApp() (*app.App, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := newLogger(cfg)

	reviewJob, err := app.NewReviewJob(cfg, slogLogger)
	if err != nil {
		return nil, nil, err
	}

	application, err := app.NewApp(cfg, reviewJob, slogLogger)
	if err != nil {
		return nil, nil, err
	}

	return application, func() {}, nil
}

// InitializeReviewJob wires a standalone review job for one-shot mode.
func InitializeReviewJob() (core.Job, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := newLogger(cfg)

	reviewJob, err := app.NewReviewJob(cfg, slogLogger)
	if err != nil {
		return nil, nil, err
	}
	return reviewJob, cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var logWriter io.Writer
	switch cfg.Logging.Output {
	case "stdout":
		logWriter = os.Stdout
	default:
		logWriter = os.Stderr
	}
	return logger.NewLogger(cfg.Logging, logWriter)
}
