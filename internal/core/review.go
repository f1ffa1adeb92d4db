package core

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// MarkerFor returns the idempotency marker embedded in a posted review for the
// given head commit. A later run for the same commit finds it and stops.
func MarkerFor(headSHA string) string {
	return fmt.Sprintf("<!-- review-agent commit:%s -->", headSHA)
}

// HasMarker reports whether a review body carries the marker for headSHA.
func HasMarker(body, headSHA string) bool {
	return strings.Contains(body, MarkerFor(headSHA))
}

// PullRequestRef is an immutable snapshot of the pull request under review,
// fetched once from the host API at the start of a run.
type PullRequestRef struct {
	Number      int
	Title       string
	Description string
	Author      string
	Labels      []string

	HeadSHA      string
	BaseSHA      string
	HeadRepo     string
	BaseRepo     string
	HeadCloneURL string
}

// NewPullRequestRef builds a snapshot from the host API representation.
func NewPullRequestRef(pr *github.PullRequest) (*PullRequestRef, error) {
	if pr.GetHead() == nil || pr.GetHead().GetSHA() == "" {
		return nil, fmt.Errorf("pull request %d has no valid head SHA", pr.GetNumber())
	}
	if pr.GetBase() == nil || pr.GetBase().GetSHA() == "" {
		return nil, fmt.Errorf("pull request %d has no valid base SHA", pr.GetNumber())
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	return &PullRequestRef{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		Author:       pr.GetUser().GetLogin(),
		Labels:       labels,
		HeadSHA:      pr.GetHead().GetSHA(),
		BaseSHA:      pr.GetBase().GetSHA(),
		HeadRepo:     pr.GetHead().GetRepo().GetFullName(),
		BaseRepo:     pr.GetBase().GetRepo().GetFullName(),
		HeadCloneURL: pr.GetHead().GetRepo().GetCloneURL(),
	}, nil
}

// FromFork reports whether the head repository differs from the base
// repository. Forked pull requests are rejected by policy before any
// checkout or test execution.
func (p *PullRequestRef) FromFork() bool {
	return p.HeadRepo != p.BaseRepo
}

// ChangedFile holds the path and post-change contents of a single file
// included in the diff under review.
type ChangedFile struct {
	Path    string
	Content string
}

// DiffContext is the code under review, built from local repository state
// after checkout. It exists only for the duration of one run.
type DiffContext struct {
	Diff       string
	Files      []ChangedFile
	TestOutput string
}
