// Package testrun executes the checked-out project's own test suite and
// captures its output for the review prompt.
package testrun

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/runner"
)

// npm writes this stub into "scripts.test" on npm init; it is not a real
// test command.
const placeholderMarker = "no test specified"

type packageJSON struct {
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Runner installs the project's dependencies and runs its declared test
// command, provisioning a browser engine first when the test tooling needs
// one. All process execution goes through the injected command runner.
type Runner struct {
	run    runner.Runner
	logger *slog.Logger
}

// New returns a test Runner.
func New(run runner.Runner, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{run: run, logger: logger}
}

// Run executes the project's test suite in repoPath and returns the combined
// install and test output. A project without a real test command is a policy
// rejection. A non-zero exit from dependency install or the test command is a
// hard failure carrying the captured output; it is never retried and the
// language model is never consulted for a broken build.
func (r *Runner) Run(ctx context.Context, repoPath string) (string, error) {
	pkg, err := readPackageJSON(repoPath)
	if err != nil {
		return "", err
	}
	if !hasRealTestScript(pkg) {
		return "", core.NewPolicyError("the project does not declare a runnable test command, so tests were skipped and no review was produced")
	}

	var output strings.Builder

	installArgs := []string{"install", "--no-audit", "--no-fund"}
	if _, err := os.Stat(filepath.Join(repoPath, "package-lock.json")); err == nil {
		installArgs = []string{"ci", "--no-audit", "--no-fund"}
	}

	r.logger.Info("installing project dependencies", "path", repoPath)
	if err := r.step(ctx, repoPath, &output, "dependency install", "npm", installArgs...); err != nil {
		return output.String(), err
	}

	if needsBrowser(pkg) {
		r.logger.Info("provisioning browser engine for test run")
		if err := r.step(ctx, repoPath, &output, "browser provisioning", "npx", "playwright", "install", "--with-deps"); err != nil {
			return output.String(), err
		}
	}

	r.logger.Info("running project test suite")
	if err := r.step(ctx, repoPath, &output, "test run", "npm", "test"); err != nil {
		return output.String(), err
	}

	return output.String(), nil
}

func (r *Runner) step(ctx context.Context, dir string, output *strings.Builder, step, name string, args ...string) error {
	res, err := r.run.Run(ctx, dir, name, args...)
	output.WriteString(res.Output)
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	if res.ExitCode != 0 {
		return &core.CommandError{
			Step:     step,
			Output:   output.String(),
			ExitCode: res.ExitCode,
			Err:      fmt.Errorf("%s exited with code %d", step, res.ExitCode),
		}
	}
	return nil
}

func readPackageJSON(repoPath string) (*packageJSON, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewPolicyError("the project has no package.json, so tests were skipped and no review was produced")
		}
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	return &pkg, nil
}

func hasRealTestScript(pkg *packageJSON) bool {
	script, ok := pkg.Scripts["test"]
	if !ok || strings.TrimSpace(script) == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(script), placeholderMarker)
}

// needsBrowser reports whether the test tooling requires a browser engine.
func needsBrowser(pkg *packageJSON) bool {
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		for name := range deps {
			if name == "@playwright/test" || name == "playwright" {
				return true
			}
		}
	}
	return false
}
