package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codacore/review-agent/internal/app"
	"github.com/codacore/review-agent/internal/config"
	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/diffctx"
	"github.com/codacore/review-agent/internal/github"
	"github.com/codacore/review-agent/internal/gitutil"
	"github.com/codacore/review-agent/internal/runner"
	"github.com/codacore/review-agent/internal/wire"
)

var dryRun bool

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	stepColor  = color.New(color.FgWhite)
	dimColor   = color.New(color.FgHiBlack)
	okColor    = color.New(color.FgGreen)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Review a GitHub pull request by URL",
	Long: `Review a GitHub pull request by URL.

With --dry-run the generated review is rendered to the terminal instead of
being posted, and the project's test suite is not run.

Examples:
  review-agent review https://github.com/owner/repo/pull/123
  review-agent review --dry-run https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render the review locally instead of posting it")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(args[0])
	if err != nil {
		return err
	}

	event := &core.ReviewEvent{
		RepoOwner:    owner,
		RepoName:     repoName,
		RepoFullName: owner + "/" + repoName,
		RepoCloneURL: fmt.Sprintf("https://github.com/%s/%s.git", owner, repoName),
		PRNumber:     prNumber,
	}

	titleColor.Println("Review Agent")
	dimColor.Printf("   Target: %s\n\n", args[0])

	// The flag has to reach config loading, which reads the environment.
	if githubToken != "" {
		if err := os.Setenv("GITHUB_TOKEN", githubToken); err != nil {
			return err
		}
	}

	if !dryRun {
		job, _, err := wire.InitializeReviewJob()
		if err != nil {
			return err
		}
		if err := job.Run(ctx, event); err != nil {
			return err
		}
		okColor.Println("Review posted.")
		return nil
	}

	return dryRunReview(ctx, event)
}

// dryRunReview walks the generation flow without the test stage and without
// posting anything back to the pull request.
func dryRunReview(ctx context.Context, event *core.ReviewEvent) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, token, err := github.NewClientForEvent(ctx, cfg, 0, logger)
	if err != nil {
		return err
	}

	stepColor.Println("Fetching pull request...")
	rawPR, err := client.GetPullRequest(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return err
	}
	pr, err := core.NewPullRequestRef(rawPR)
	if err != nil {
		return err
	}
	if pr.FromFork() {
		return core.NewPolicyError("pull request comes from fork %s; refusing to check it out", pr.HeadRepo)
	}

	stepColor.Println("Checking out head commit...")
	run := runner.NewExecRunner(logger)
	workPath := filepath.Join(cfg.Review.Workdir, "dry-run")
	materializer := gitutil.NewMaterializer(run, logger)
	if err := materializer.Checkout(ctx, workPath, event.RepoCloneURL, token, pr); err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(workPath) }()

	stepColor.Println("Extracting diff context...")
	extractor := diffctx.NewExtractor(run, logger)
	dc, err := extractor.Extract(ctx, workPath, pr, cfg.Review)
	if err != nil {
		return err
	}

	if cfg.LLM.APIKey == "" {
		return core.NewPolicyError("no model credentials are configured")
	}

	stepColor.Println("Generating review...")
	generator, err := app.NewGenerator(cfg, logger)
	if err != nil {
		return err
	}
	review, err := generator.Generate(ctx, pr, dc)
	if err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Println(review)
		return nil
	}
	rendered, err := renderer.Render(review)
	if err != nil {
		fmt.Println(review)
		return nil
	}
	fmt.Print(rendered)
	dimColor.Printf("\n(dry run: nothing was posted for commit %s)\n", pr.HeadSHA)
	return nil
}
