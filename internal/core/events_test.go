package core

import (
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueCommentEvent(body string, prNumber int, onPR bool) *github.IssueCommentEvent {
	issue := &github.Issue{Number: github.Ptr(prNumber)}
	if onPR {
		issue.PullRequestLinks = &github.PullRequestLinks{
			URL: github.Ptr("https://api.github.com/repos/acme/widgets/pulls/42"),
		}
	}
	return &github.IssueCommentEvent{
		Issue:   issue,
		Comment: &github.IssueComment{Body: github.Ptr(body), User: &github.User{Login: github.Ptr("alice")}},
		Repo: &github.Repository{
			Name:     github.Ptr("widgets"),
			FullName: github.Ptr("acme/widgets"),
			CloneURL: github.Ptr("https://github.com/acme/widgets.git"),
			Owner:    &github.User{Login: github.Ptr("acme")},
		},
		Installation: &github.Installation{ID: github.Ptr(int64(777))},
	}
}

func TestEventFromIssueComment(t *testing.T) {
	const trigger = "@review-agent"

	t.Run("Triggering comment on a PR", func(t *testing.T) {
		raw := issueCommentEvent("@review-agent take a look", 42, true)

		event, err := EventFromIssueComment(raw, trigger)
		require.NoError(t, err)

		assert.Equal(t, "acme", event.RepoOwner)
		assert.Equal(t, "widgets", event.RepoName)
		assert.Equal(t, "acme/widgets", event.RepoFullName)
		assert.Equal(t, "https://github.com/acme/widgets.git", event.RepoCloneURL)
		assert.Equal(t, 42, event.PRNumber)
		assert.Equal(t, "@review-agent take a look", event.CommentBody)
		assert.Equal(t, "alice", event.Commenter)
		assert.Equal(t, int64(777), event.InstallationID)
	})

	t.Run("Comment on a plain issue is rejected", func(t *testing.T) {
		raw := issueCommentEvent("@review-agent take a look", 42, false)

		_, err := EventFromIssueComment(raw, trigger)
		assert.ErrorContains(t, err, "not on a pull request")
	})

	t.Run("Comment without the trigger is rejected", func(t *testing.T) {
		raw := issueCommentEvent("looks good to me", 42, true)

		_, err := EventFromIssueComment(raw, trigger)
		assert.ErrorContains(t, err, "trigger")
	})

	t.Run("Trigger quoted in a code block is rejected", func(t *testing.T) {
		raw := issueCommentEvent("```\n@review-agent\n```", 42, true)

		_, err := EventFromIssueComment(raw, trigger)
		assert.ErrorContains(t, err, "trigger")
	})

	t.Run("Missing repository owner is rejected", func(t *testing.T) {
		raw := issueCommentEvent("@review-agent", 42, true)
		raw.Repo.Owner = nil

		_, err := EventFromIssueComment(raw, trigger)
		assert.ErrorContains(t, err, "repository or owner")
	})

	t.Run("Missing PR number is rejected", func(t *testing.T) {
		raw := issueCommentEvent("@review-agent", 0, true)

		_, err := EventFromIssueComment(raw, trigger)
		assert.ErrorContains(t, err, "invalid pull request number")
	})
}
