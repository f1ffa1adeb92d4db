// Package gitutil materializes local checkouts of the pull request under
// review.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/runner"
)

// Materializer produces a clean local checkout of a PR's head commit with
// enough ancestry to diff against the base commit.
type Materializer struct {
	run    runner.Runner
	logger *slog.Logger
}

// NewMaterializer returns a Materializer using the given command runner for
// all git invocations.
func NewMaterializer(run runner.Runner, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{run: run, logger: logger}
}

// Checkout prepares path for reviewing pr. Any previous working directory at
// that path is removed first so no stale state leaks between runs; a fresh
// repository is initialized, only the base and head commits are fetched at
// shallow depth, and the head commit is checked out. Failures here are fatal
// to the run and are not retried.
func (m *Materializer) Checkout(ctx context.Context, path, cloneURL, token string, pr *core.PullRequestRef) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove previous workspace %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace %s: %w", path, err)
	}

	authURL, err := authenticatedURL(cloneURL, token)
	if err != nil {
		return err
	}

	m.logger.Info("materializing workspace", "path", path, "head", pr.HeadSHA, "base", pr.BaseSHA)

	steps := [][]string{
		{"init", "--quiet"},
		{"remote", "add", "origin", authURL},
		{"fetch", "--quiet", "--depth", "1", "origin", pr.BaseSHA, pr.HeadSHA},
		{"checkout", "--quiet", "--force", pr.HeadSHA},
	}
	for _, args := range steps {
		if err := m.git(ctx, path, args...); err != nil {
			return err
		}
	}

	m.logger.Info("workspace ready", "path", path)
	return nil
}

func (m *Materializer) git(ctx context.Context, dir string, args ...string) error {
	res, err := m.run.Run(ctx, dir, "git", args...)
	if err != nil {
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	if res.ExitCode != 0 {
		return &core.CommandError{
			Step:     "git " + args[0],
			Output:   res.Output,
			ExitCode: res.ExitCode,
			Err:      fmt.Errorf("git %s exited with code %d", args[0], res.ExitCode),
		}
	}
	return nil
}

// authenticatedURL injects the access token into an HTTPS clone URL. Local
// paths pass through untouched; anything else is rejected.
func authenticatedURL(repoURL, token string) (string, error) {
	if !strings.Contains(repoURL, "://") {
		return repoURL, nil
	}
	if !strings.HasPrefix(repoURL, "https://") && !strings.HasPrefix(repoURL, "http://") {
		return "", fmt.Errorf("invalid repository URL: %s", repoURL)
	}
	if token == "" {
		return repoURL, nil
	}

	parsedURL, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse repository URL %q: %w", repoURL, err)
	}
	parsedURL.User = url.UserPassword("x-access-token", token)
	return parsedURL.String(), nil
}
