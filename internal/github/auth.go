// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/codacore/review-agent/internal/config"
)

// NewClientForEvent creates a GitHub client for one orchestration run. A
// personal access token takes precedence; otherwise the client authenticates
// as the GitHub App installation that delivered the event. The returned token
// is also used to authenticate git fetches of the repository.
func NewClientForEvent(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (Client, string, error) {
	if cfg.GitHub.Token != "" {
		return NewTokenClient(ctx, cfg.GitHub.Token, logger), cfg.GitHub.Token, nil
	}
	if !cfg.GitHub.UsesApp() {
		return nil, "", fmt.Errorf("no GitHub credentials configured")
	}
	if installationID == 0 {
		return nil, "", fmt.Errorf("event carries no installation ID and no token is configured")
	}
	return newInstallationClient(ctx, cfg, installationID, logger)
}

// newInstallationClient creates a GitHub client that is authenticated as a
// specific application installation, returning the client and the raw
// installation token.
func newInstallationClient(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (Client, string, error) {
	logger.Info("creating GitHub installation client", "installation_id", installationID)

	privateKey, err := os.ReadFile(cfg.GitHub.PrivateKeyPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read private key from %s: %w", cfg.GitHub.PrivateKeyPath, err)
	}

	// The apps transport talks to the GitHub App API to mint installation tokens.
	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, cfg.GitHub.AppID, privateKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	appClient := github.NewClient(&http.Client{Transport: appTransport})

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create installation token for installation ID %d: %w", installationID, err)
	}
	if token.GetToken() == "" {
		return nil, "", fmt.Errorf("received an empty installation token")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.GetToken()})
	tc := oauth2.NewClient(ctx, ts)

	return NewClient(github.NewClient(tc), logger), token.GetToken(), nil
}
