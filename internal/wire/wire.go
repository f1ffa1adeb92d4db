//go:build wireinject
// +build wireinject

package wire

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/wire"

	"github.com/codacore/review-agent/internal/app"
	"github.com/codacore/review-agent/internal/config"
	"github.com/codacore/review-agent/internal/logger"
)

func InitializeApp() (*app.App, func(), error) {
	wire.Build(
		config.LoadConfig,
		app.NewReviewJob,
		app.NewApp,
		provideLogWriter,
		provideSlogLogger,
	)
	return &app.App{}, nil, nil
}

func provideLogWriter(cfg *config.Config) io.Writer {
	switch cfg.Logging.Output {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}

func provideSlogLogger(cfg *config.Config, writer io.Writer) *slog.Logger {
	return logger.NewLogger(cfg.Logging, writer)
}
