package core

import (
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerFor(t *testing.T) {
	marker := MarkerFor("abc123")
	assert.Equal(t, "<!-- review-agent commit:abc123 -->", marker)
}

func TestHasMarker(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		headSHA string
		want    bool
	}{
		{
			name:    "Marker at end of review",
			body:    "Looks fine overall.\n\n<!-- review-agent commit:abc123 -->",
			headSHA: "abc123",
			want:    true,
		},
		{
			name:    "Marker for a different commit",
			body:    "Looks fine overall.\n\n<!-- review-agent commit:def456 -->",
			headSHA: "abc123",
			want:    false,
		},
		{
			name:    "No marker at all",
			body:    "Looks fine overall.",
			headSHA: "abc123",
			want:    false,
		},
		{
			name:    "Empty body",
			body:    "",
			headSHA: "abc123",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasMarker(tt.body, tt.headSHA))
		})
	}
}

func apiPullRequest() *github.PullRequest {
	return &github.PullRequest{
		Number: github.Ptr(7),
		Title:  github.Ptr("Add rate limiter"),
		Body:   github.Ptr("Limits request bursts."),
		User:   &github.User{Login: github.Ptr("bob")},
		Labels: []*github.Label{
			{Name: github.Ptr("enhancement")},
			{Name: github.Ptr("backend")},
		},
		Head: &github.PullRequestBranch{
			SHA: github.Ptr("headsha"),
			Repo: &github.Repository{
				FullName: github.Ptr("acme/widgets"),
				CloneURL: github.Ptr("https://github.com/acme/widgets.git"),
			},
		},
		Base: &github.PullRequestBranch{
			SHA:  github.Ptr("basesha"),
			Repo: &github.Repository{FullName: github.Ptr("acme/widgets")},
		},
	}
}

func TestNewPullRequestRef(t *testing.T) {
	t.Run("Complete pull request", func(t *testing.T) {
		pr, err := NewPullRequestRef(apiPullRequest())
		require.NoError(t, err)

		assert.Equal(t, 7, pr.Number)
		assert.Equal(t, "Add rate limiter", pr.Title)
		assert.Equal(t, "Limits request bursts.", pr.Description)
		assert.Equal(t, "bob", pr.Author)
		assert.Equal(t, []string{"enhancement", "backend"}, pr.Labels)
		assert.Equal(t, "headsha", pr.HeadSHA)
		assert.Equal(t, "basesha", pr.BaseSHA)
		assert.False(t, pr.FromFork())
	})

	t.Run("Missing head SHA", func(t *testing.T) {
		raw := apiPullRequest()
		raw.Head.SHA = nil

		_, err := NewPullRequestRef(raw)
		assert.ErrorContains(t, err, "head SHA")
	})

	t.Run("Missing base SHA", func(t *testing.T) {
		raw := apiPullRequest()
		raw.Base = nil

		_, err := NewPullRequestRef(raw)
		assert.ErrorContains(t, err, "base SHA")
	})

	t.Run("Fork is detected", func(t *testing.T) {
		raw := apiPullRequest()
		raw.Head.Repo.FullName = github.Ptr("mallory/widgets")

		pr, err := NewPullRequestRef(raw)
		require.NoError(t, err)
		assert.True(t, pr.FromFork())
	})
}
