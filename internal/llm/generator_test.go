package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/mocks"
)

func generatorFixtures() (*core.PullRequestRef, *core.DiffContext) {
	pr := &core.PullRequestRef{
		Number:      7,
		Title:       "Add rate limiter",
		Description: "Limits request bursts.",
		Author:      "bob",
		Labels:      []string{"backend"},
		HeadSHA:     "headsha",
		BaseSHA:     "basesha",
	}
	dc := &core.DiffContext{
		Diff:       "diff --git a/limiter.js b/limiter.js\n+const max = 100;",
		Files:      []core.ChangedFile{{Path: "limiter.js", Content: "const max = 100;"}},
		TestOutput: "3 passed",
	}
	return pr, dc
}

func newTestGenerator(t *testing.T, client CompletionClient) *Generator {
	t.Helper()
	prompts, err := NewPromptManager()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewGenerator(client, prompts, logger)
}

func TestGeneratorGenerate(t *testing.T) {
	ctx := context.Background()
	pr, dc := generatorFixtures()

	t.Run("Substantive first pass is returned as is", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockCompletionClient(ctrl)
		client.EXPECT().Complete(gomock.Any(), gomock.Any()).
			Return("The retry loop in limiter.js is unbounded.", nil)

		review, err := newTestGenerator(t, client).Generate(ctx, pr, dc)
		require.NoError(t, err)
		assert.Equal(t, "The retry loop in limiter.js is unbounded.", review)
	})

	t.Run("Clean verdict triggers exactly one recheck", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockCompletionClient(ctrl)
		gomock.InOrder(
			client.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return("No issues found.", nil),
			client.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return("On a second look, the limiter resets too early.", nil),
		)

		review, err := newTestGenerator(t, client).Generate(ctx, pr, dc)
		require.NoError(t, err)
		assert.Equal(t, "On a second look, the limiter resets too early.", review)
	})

	t.Run("Clean verdict matching is case-insensitive", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockCompletionClient(ctrl)
		gomock.InOrder(
			client.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return("  NO ISSUES FOUND  ", nil),
			client.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return("Still fine.", nil),
		)

		review, err := newTestGenerator(t, client).Generate(ctx, pr, dc)
		require.NoError(t, err)
		assert.Equal(t, "Still fine.", review)
	})

	t.Run("A clean recheck verdict is final, never a second retry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockCompletionClient(ctrl)
		gomock.InOrder(
			client.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return("No issues found.", nil),
			client.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return("No issues found after re-checking.", nil),
		)

		review, err := newTestGenerator(t, client).Generate(ctx, pr, dc)
		require.NoError(t, err)
		assert.Equal(t, "No issues found after re-checking.", review)
	})

	t.Run("First pass failure propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockCompletionClient(ctrl)
		client.EXPECT().Complete(gomock.Any(), gomock.Any()).
			Return("", fmt.Errorf("connection refused"))

		_, err := newTestGenerator(t, client).Generate(ctx, pr, dc)
		assert.ErrorContains(t, err, "review generation failed")
	})

	t.Run("Recheck failure propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockCompletionClient(ctrl)
		gomock.InOrder(
			client.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return("no issues found", nil),
			client.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return("", fmt.Errorf("connection refused")),
		)

		_, err := newTestGenerator(t, client).Generate(ctx, pr, dc)
		assert.ErrorContains(t, err, "recheck generation failed")
	})
}

func TestReportsNoIssues(t *testing.T) {
	tests := []struct {
		name   string
		review string
		want   bool
	}{
		{"Exact phrase", "No issues found.", true},
		{"Lower case", "no issues found", true},
		{"Embedded in a sentence", "After careful review: no issues found in this change.", true},
		{"Substantive review", "The lock is taken twice in handler.go.", false},
		{"Empty review", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reportsNoIssues(tt.review))
		})
	}
}
