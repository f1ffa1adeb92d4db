// Package diffctx builds the code context for one review: the unified diff
// between the base and head commits, and optionally the post-change contents
// of every changed file.
package diffctx

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/codacore/review-agent/internal/config"
	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/runner"
	"github.com/codacore/review-agent/internal/textutil"
)

// Extractor reads a materialized workspace and produces the DiffContext fed
// into the prompt builder.
type Extractor struct {
	run    runner.Runner
	logger *slog.Logger
}

// NewExtractor returns an Extractor using the given command runner for the
// unified diff and go-git for tree inspection.
func NewExtractor(run runner.Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{run: run, logger: logger}
}

// Extract produces the unified diff between the base and head commits with
// the configured context window and, when enabled, the capped contents of
// every changed file. Binary or unreadable files are skipped at the file
// level without aborting the extraction.
func (e *Extractor) Extract(ctx context.Context, repoPath string, pr *core.PullRequestRef, cfg config.ReviewConfig) (*core.DiffContext, error) {
	diff, err := e.unifiedDiff(ctx, repoPath, pr, cfg.DiffContextLines)
	if err != nil {
		return nil, err
	}

	dc := &core.DiffContext{
		Diff: textutil.Truncate(diff, cfg.MaxDiffChars),
	}

	if cfg.CollectFileContents {
		files, err := e.changedFileContents(repoPath, pr, cfg.MaxFileChars)
		if err != nil {
			return nil, err
		}
		dc.Files = files
	}

	return dc, nil
}

func (e *Extractor) unifiedDiff(ctx context.Context, repoPath string, pr *core.PullRequestRef, contextLines int) (string, error) {
	args := []string{"diff", "--unified=" + strconv.Itoa(contextLines), pr.BaseSHA, pr.HeadSHA}
	res, err := e.run.Run(ctx, repoPath, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	if res.ExitCode != 0 {
		return "", &core.CommandError{
			Step:     "git diff",
			Output:   res.Output,
			ExitCode: res.ExitCode,
			Err:      fmt.Errorf("git diff exited with code %d", res.ExitCode),
		}
	}
	return res.Output, nil
}

// changedFileContents enumerates the files that differ between the base and
// head trees and reads their post-change contents from the head commit.
func (e *Extractor) changedFileContents(repoPath string, pr *core.PullRequestRef, maxFileChars int) ([]core.ChangedFile, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}

	baseTree, err := commitTree(repo, pr.BaseSHA)
	if err != nil {
		return nil, err
	}
	headTree, err := commitTree(repo, pr.HeadSHA)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees between %s and %s: %w", pr.BaseSHA, pr.HeadSHA, err)
	}

	var files []core.ChangedFile
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			e.logger.Debug("skipping change with unknown action", "error", err)
			continue
		}
		if action == merkletrie.Delete {
			continue
		}

		path := change.To.Name
		file, err := headTree.File(path)
		if err != nil {
			e.logger.Debug("skipping unreadable changed file", "path", path, "error", err)
			continue
		}
		if binary, err := file.IsBinary(); err != nil || binary {
			e.logger.Debug("skipping binary changed file", "path", path)
			continue
		}

		content, err := file.Contents()
		if err != nil {
			e.logger.Debug("skipping changed file with unreadable contents", "path", path, "error", err)
			continue
		}

		files = append(files, core.ChangedFile{
			Path:    path,
			Content: textutil.Truncate(content, maxFileChars),
		})
	}

	return files, nil
}

func commitTree(repo *git.Repository, sha string) (*object.Tree, error) {
	commit, err := repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for %s: %w", sha, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree for commit %s: %w", sha, err)
	}
	return tree, nil
}
