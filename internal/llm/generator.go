package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codacore/review-agent/internal/core"
)

// cleanVerdict is the phrase a first pass must contain, case-insensitively,
// to trigger the single recheck call.
const cleanVerdict = "no issues found"

// ReviewPromptData is the ordered material a review prompt is rendered from.
type ReviewPromptData struct {
	Title       string
	Description string
	Author      string
	Labels      string
	Files       []core.ChangedFile
	TestOutput  string
	Diff        string
}

// Generator produces the review text for one run. A first pass that reports a
// clean verdict is deliberately second-guessed: one shorter, more directive
// prompt over the same context, and whatever that attempt returns is final.
// At most one retry ever occurs.
type Generator struct {
	client  CompletionClient
	prompts *PromptManager
	logger  *slog.Logger
}

// NewGenerator creates a Generator over the given completion client.
func NewGenerator(client CompletionClient, prompts *PromptManager, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, prompts: prompts, logger: logger}
}

// Generate renders the primary prompt, submits it, and applies the recheck
// policy to a clean first-pass verdict.
func (g *Generator) Generate(ctx context.Context, pr *core.PullRequestRef, dc *core.DiffContext) (string, error) {
	data := promptData(pr, dc)

	prompt, err := g.prompts.Render(CodeReviewPrompt, data)
	if err != nil {
		return "", err
	}

	review, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("review generation failed: %w", err)
	}

	if !reportsNoIssues(review) {
		return review, nil
	}

	g.logger.Info("first pass reported no issues, asking the model to look harder")

	recheckPrompt, err := g.prompts.Render(RecheckPrompt, data)
	if err != nil {
		return "", err
	}

	review, err = g.client.Complete(ctx, recheckPrompt)
	if err != nil {
		return "", fmt.Errorf("recheck generation failed: %w", err)
	}
	return review, nil
}

func promptData(pr *core.PullRequestRef, dc *core.DiffContext) *ReviewPromptData {
	return &ReviewPromptData{
		Title:       pr.Title,
		Description: pr.Description,
		Author:      pr.Author,
		Labels:      strings.Join(pr.Labels, ", "),
		Files:       dc.Files,
		TestOutput:  dc.TestOutput,
		Diff:        dc.Diff,
	}
}

func reportsNoIssues(review string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(review)), cleanVerdict)
}
