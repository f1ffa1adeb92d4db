// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"

	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/textutil"
)

// Publisher posts the outcome of a run back to the pull request: either the
// generated review carrying the idempotency marker, or a single explanatory
// comment for a policy rejection or command failure.
type Publisher interface {
	PublishReview(ctx context.Context, event *core.ReviewEvent, headSHA, review string) error
	PublishComment(ctx context.Context, event *core.ReviewEvent, body string) error
}

type publisher struct {
	client          Client
	maxCommentChars int
}

// NewPublisher creates a Publisher over the given host API client. Posted
// bodies are truncated to maxCommentChars before the marker is appended, so
// the marker itself is never cut off.
func NewPublisher(client Client, maxCommentChars int) Publisher {
	return &publisher{client: client, maxCommentChars: maxCommentChars}
}

// PublishReview appends the idempotency marker to the generated review text
// and posts it as a single pull request review. This is the only mutating
// step on the success path and runs exactly once per pass through the gate.
func (p *publisher) PublishReview(ctx context.Context, event *core.ReviewEvent, headSHA, review string) error {
	body := textutil.Truncate(review, p.maxCommentChars)
	body = fmt.Sprintf("%s\n\n%s", body, core.MarkerFor(headSHA))
	return p.client.CreateReview(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body)
}

// PublishComment posts a single explanatory comment on the pull request.
func (p *publisher) PublishComment(ctx context.Context, event *core.ReviewEvent, body string) error {
	body = textutil.Truncate(body, p.maxCommentChars)
	return p.client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body)
}
