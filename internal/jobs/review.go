// Package jobs contains the review orchestration and its background
// dispatcher.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codacore/review-agent/internal/config"
	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/github"
	"github.com/codacore/review-agent/internal/textutil"
)

// ClientFactory creates a host API client for one run. It returns the client
// and the token used to authenticate git fetches.
type ClientFactory func(ctx context.Context, installationID int64) (github.Client, string, error)

// WorkspaceMaterializer produces a clean checkout of the PR head commit.
type WorkspaceMaterializer interface {
	Checkout(ctx context.Context, path, cloneURL, token string, pr *core.PullRequestRef) error
}

// ContextExtractor builds the diff context from a materialized workspace.
type ContextExtractor interface {
	Extract(ctx context.Context, repoPath string, pr *core.PullRequestRef, cfg config.ReviewConfig) (*core.DiffContext, error)
}

// TestRunner executes the checked-out project's test suite.
type TestRunner interface {
	Run(ctx context.Context, repoPath string) (string, error)
}

// Generator produces the final review text from the assembled context.
type Generator interface {
	Generate(ctx context.Context, pr *core.PullRequestRef, dc *core.DiffContext) (string, error)
}

// ReviewJob runs one complete orchestration pass for a webhook event: resolve
// the PR, check idempotency, materialize a checkout, optionally run the
// project's tests, generate a review, and post it. Each step can short-circuit
// the rest of the run.
type ReviewJob struct {
	cfg          *config.Config
	clients      ClientFactory
	materializer WorkspaceMaterializer
	extractor    ContextExtractor
	tests        TestRunner
	generator    Generator
	logger       *slog.Logger
}

// NewReviewJob creates a ReviewJob from its collaborators.
func NewReviewJob(
	cfg *config.Config,
	clients ClientFactory,
	materializer WorkspaceMaterializer,
	extractor ContextExtractor,
	tests TestRunner,
	generator Generator,
	logger *slog.Logger,
) core.Job {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewJob{
		cfg:          cfg,
		clients:      clients,
		materializer: materializer,
		extractor:    extractor,
		tests:        tests,
		generator:    generator,
		logger:       logger,
	}
}

// Run executes the review flow for a given event. It returns
// core.ErrNothingToDo when the head commit was already reviewed. Policy
// rejections and command failures are posted to the PR as a single
// explanatory comment before the error is returned.
func (j *ReviewJob) Run(ctx context.Context, event *core.ReviewEvent) error {
	if err := j.validateInputs(event); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	log := j.logger.With("repo", event.RepoFullName, "pr", event.PRNumber)
	log.Info("starting review run")

	client, token, err := j.clients(ctx, event.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	publisher := github.NewPublisher(client, j.cfg.Review.MaxCommentChars)

	rawPR, err := client.GetPullRequest(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to get PR details: %w", err)
	}
	pr, err := core.NewPullRequestRef(rawPR)
	if err != nil {
		return err
	}

	// Fork PRs are rejected before any checkout or test execution. This is
	// a policy rule, not a transient error.
	if pr.FromFork() {
		policyErr := core.NewPolicyError(
			"this pull request comes from fork %s; automated review only runs for branches of %s",
			pr.HeadRepo, pr.BaseRepo,
		)
		return j.reject(ctx, publisher, event, log, policyErr)
	}

	// The idempotency check runs before any mutating or expensive step.
	// Two simultaneous runs for the same commit can both pass it before
	// either posts; that read-then-act race is accepted and not locked.
	reviews, err := client.ListReviews(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to list existing reviews: %w", err)
	}
	for _, r := range reviews {
		if core.HasMarker(r.Body, pr.HeadSHA) {
			log.Info("head commit already reviewed, nothing to do", "sha", pr.HeadSHA)
			return core.ErrNothingToDo
		}
	}

	workPath := filepath.Join(j.cfg.Review.Workdir, workspaceName(event.RepoFullName, event.PRNumber))
	if err := j.materializer.Checkout(ctx, workPath, event.RepoCloneURL, token, pr); err != nil {
		return fmt.Errorf("failed to materialize workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workPath); err != nil {
			log.Warn("failed to clean up workspace", "path", workPath, "error", err)
		}
	}()

	reviewCfg := j.effectiveReviewConfig(workPath, log)

	var testOutput string
	if reviewCfg.RunTests {
		out, err := j.tests.Run(ctx, workPath)
		if err != nil {
			return j.reject(ctx, publisher, event, log, err)
		}
		testOutput = textutil.Truncate(out, reviewCfg.MaxTestOutputChars)
		log.Info("project test suite passed")
	}

	dc, err := j.extractor.Extract(ctx, workPath, pr, reviewCfg)
	if err != nil {
		return fmt.Errorf("failed to extract diff context: %w", err)
	}
	dc.TestOutput = testOutput

	if j.cfg.LLM.APIKey == "" {
		policyErr := core.NewPolicyError("no model credentials are configured, so no review was produced")
		return j.reject(ctx, publisher, event, log, policyErr)
	}

	review, err := j.generator.Generate(ctx, pr, dc)
	if err != nil {
		return err
	}

	if err := publisher.PublishReview(ctx, event, pr.HeadSHA, review); err != nil {
		return fmt.Errorf("failed to post review: %w", err)
	}

	log.Info("review posted", "sha", pr.HeadSHA)
	return nil
}

// reject posts a single explanatory comment for an expected failure and
// returns the original error. A failure to post is logged, not retried.
func (j *ReviewJob) reject(ctx context.Context, publisher github.Publisher, event *core.ReviewEvent, log *slog.Logger, cause error) error {
	body := failureComment(cause, j.cfg.Review.MaxTestOutputChars)

	if err := publisher.PublishComment(ctx, event, body); err != nil {
		log.Error("failed to post failure comment", "error", err)
	}
	return cause
}

// failureComment renders the comment body for a policy rejection or a failed
// command, embedding captured output up to the given budget.
func failureComment(cause error, outputBudget int) string {
	var cmdErr *core.CommandError
	if errors.As(cause, &cmdErr) {
		return fmt.Sprintf(
			"**Automated review stopped: %s failed (exit code %d).**\n\n```\n%s\n```",
			cmdErr.Step, cmdErr.ExitCode, textutil.Truncate(cmdErr.Output, outputBudget),
		)
	}

	var policyErr *core.PolicyError
	if errors.As(cause, &policyErr) {
		return fmt.Sprintf("**Automated review skipped:** %s.", strings.TrimSuffix(policyErr.Reason, "."))
	}

	return fmt.Sprintf("**Automated review failed:** %s", cause)
}

// effectiveReviewConfig overlays any .review-agent.yml found in the checkout
// onto the service defaults. A missing file is the normal case.
func (j *ReviewJob) effectiveReviewConfig(workPath string, log *slog.Logger) config.ReviewConfig {
	rc, err := config.LoadRepoConfig(workPath)
	if err != nil {
		if !errors.Is(err, config.ErrRepoConfigNotFound) {
			log.Warn("ignoring malformed repo config", "error", err)
		}
		return j.cfg.Review
	}
	log.Info("applying repository review overrides")
	return rc.Apply(j.cfg.Review)
}

func (j *ReviewJob) validateInputs(event *core.ReviewEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.RepoOwner == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if event.RepoName == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if event.RepoCloneURL == "" {
		return fmt.Errorf("repository clone URL cannot be empty")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.PRNumber)
	}
	return nil
}

var unsafePathChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// workspaceName builds a stable, filesystem-safe directory name for a PR so
// a rerun replaces the previous checkout of the same task.
func workspaceName(repoFullName string, prNumber int) string {
	safe := strings.ToLower(strings.ReplaceAll(repoFullName, "/", "-"))
	safe = unsafePathChars.ReplaceAllString(safe, "")
	return fmt.Sprintf("%s-pr%d", safe, prNumber)
}
