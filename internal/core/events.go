// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"fmt"

	"github.com/google/go-github/v73/github"
)

// ReviewEvent is the application's internal view of an incoming webhook event.
// It is parsed once at the start of a run and read-only thereafter.
type ReviewEvent struct {
	RepoOwner    string
	RepoName     string
	RepoFullName string
	RepoCloneURL string

	PRNumber    int
	CommentBody string
	Commenter   string

	// InstallationID is zero when the run authenticates with a token
	// instead of a GitHub App installation.
	InstallationID int64
}

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the
// application's internal ReviewEvent. It acts as an anti-corruption layer,
// ensuring the incoming payload is a triggering comment on a pull request and
// carries all the data a review run needs. The trigger phrase is matched
// case-insensitively and is inert inside fenced code blocks.
func EventFromIssueComment(event *github.IssueCommentEvent, trigger string) (*ReviewEvent, error) {
	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}

	body := event.GetComment().GetBody()
	if !ContainsTrigger(body, trigger) {
		return nil, fmt.Errorf("comment does not contain the review trigger")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	return &ReviewEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		RepoCloneURL:   repo.GetCloneURL(),
		PRNumber:       prNumber,
		CommentBody:    body,
		Commenter:      event.GetComment().GetUser().GetLogin(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}
