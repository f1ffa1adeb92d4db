package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/go-github/v73/github"
	"github.com/spf13/cobra"

	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/wire"
)

var eventPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a single webhook event payload and exit",
	Long: `Process one GitHub issue_comment webhook payload, the way a CI job would.

The payload is read from --event-path, or from the file named by the
GITHUB_EVENT_PATH environment variable. The process exits 0 when a review was
posted, 78 when there was nothing to do (no trigger in the comment, or the
head commit is already reviewed), and 1 on failure.`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	runCmd.Flags().StringVar(&eventPath, "event-path", "", "Path to the webhook event JSON (defaults to $GITHUB_EVENT_PATH)")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	path := eventPath
	if path == "" {
		path = os.Getenv("GITHUB_EVENT_PATH")
	}
	if path == "" {
		return fmt.Errorf("no event payload: set --event-path or GITHUB_EVENT_PATH")
	}

	// The flag has to reach config loading, which reads the environment.
	if githubToken != "" {
		if err := os.Setenv("GITHUB_TOKEN", githubToken); err != nil {
			return err
		}
	}

	job, cfg, err := wire.InitializeReviewJob()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read event payload: %w", err)
	}

	var ghEvent github.IssueCommentEvent
	if err := json.Unmarshal(data, &ghEvent); err != nil {
		return fmt.Errorf("failed to parse event payload: %w", err)
	}

	event, err := core.EventFromIssueComment(&ghEvent, cfg.Review.Trigger)
	if err != nil {
		// Not an error: the event simply isn't one this agent acts on.
		return fmt.Errorf("%w: %s", core.ErrNothingToDo, err)
	}

	return job.Run(cmd.Context(), event)
}
