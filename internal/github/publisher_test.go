package github_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/github"
	"github.com/codacore/review-agent/internal/mocks"
)

func testEvent() *core.ReviewEvent {
	return &core.ReviewEvent{
		RepoOwner:    "acme",
		RepoName:     "widgets",
		RepoFullName: "acme/widgets",
		PRNumber:     42,
	}
}

func TestPublishReview(t *testing.T) {
	ctx := context.Background()

	t.Run("Appends the idempotency marker", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)

		var posted string
		client.EXPECT().CreateReview(gomock.Any(), "acme", "widgets", 42, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, _ int, body string) error {
				posted = body
				return nil
			})

		p := github.NewPublisher(client, 60000)
		require.NoError(t, p.PublishReview(ctx, testEvent(), "headsha", "The lock is taken twice."))

		assert.True(t, strings.HasSuffix(posted, core.MarkerFor("headsha")))
		assert.Contains(t, posted, "The lock is taken twice.")
		assert.True(t, core.HasMarker(posted, "headsha"))
	})

	t.Run("Truncates the review before appending the marker", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)

		var posted string
		client.EXPECT().CreateReview(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, _ int, body string) error {
				posted = body
				return nil
			})

		p := github.NewPublisher(client, 20)
		review := strings.Repeat("x", 200)
		require.NoError(t, p.PublishReview(ctx, testEvent(), "headsha", review))

		assert.Contains(t, posted, "truncated 180 characters")
		// The marker survives the cut; it is appended after truncation.
		assert.True(t, strings.HasSuffix(posted, core.MarkerFor("headsha")))
	})
}

func TestPublishComment(t *testing.T) {
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	var posted string
	client.EXPECT().CreateComment(gomock.Any(), "acme", "widgets", 42, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, body string) error {
			posted = body
			return nil
		})

	p := github.NewPublisher(client, 30)
	require.NoError(t, p.PublishComment(ctx, testEvent(), strings.Repeat("y", 100)))
	assert.Contains(t, posted, "truncated 70 characters")
}
