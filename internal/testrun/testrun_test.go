package testrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/codacore/review-agent/internal/core"
	"github.com/codacore/review-agent/internal/mocks"
	"github.com/codacore/review-agent/internal/runner"
)

func writeProject(t *testing.T, packageJSON string, withLockfile bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(packageJSON), 0o644))
	if withLockfile {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "package-lock.json"), []byte("{}"), 0o644))
	}
	return dir
}

func TestRunnerRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	t.Run("Missing package.json is a policy rejection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := New(mocks.NewMockRunner(ctrl), logger)

		_, err := r.Run(ctx, t.TempDir())

		var policyErr *core.PolicyError
		require.ErrorAs(t, err, &policyErr)
		assert.Contains(t, policyErr.Reason, "package.json")
	})

	t.Run("Placeholder test script is a policy rejection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := New(mocks.NewMockRunner(ctrl), logger)
		dir := writeProject(t, `{"scripts":{"test":"echo \"Error: no test specified\" && exit 1"}}`, false)

		_, err := r.Run(ctx, dir)

		var policyErr *core.PolicyError
		require.ErrorAs(t, err, &policyErr)
		assert.Contains(t, policyErr.Reason, "test command")
	})

	t.Run("Missing test script is a policy rejection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := New(mocks.NewMockRunner(ctrl), logger)
		dir := writeProject(t, `{"scripts":{"build":"tsc"}}`, false)

		_, err := r.Run(ctx, dir)

		var policyErr *core.PolicyError
		assert.ErrorAs(t, err, &policyErr)
	})

	t.Run("Malformed package.json is a plain error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := New(mocks.NewMockRunner(ctrl), logger)
		dir := writeProject(t, `{not json`, false)

		_, err := r.Run(ctx, dir)
		require.Error(t, err)

		var policyErr *core.PolicyError
		assert.False(t, errors.As(err, &policyErr), "a broken package.json is not a policy rejection")
	})

	t.Run("Install then test without lockfile", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		run := mocks.NewMockRunner(ctrl)
		dir := writeProject(t, `{"scripts":{"test":"vitest run"}}`, false)

		gomock.InOrder(
			run.EXPECT().Run(gomock.Any(), dir, "npm", "install", "--no-audit", "--no-fund").
				Return(runner.Result{Output: "installed\n"}, nil),
			run.EXPECT().Run(gomock.Any(), dir, "npm", "test").
				Return(runner.Result{Output: "3 passed\n"}, nil),
		)

		out, err := New(run, logger).Run(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, "installed\n3 passed\n", out)
	})

	t.Run("Lockfile switches install to npm ci", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		run := mocks.NewMockRunner(ctrl)
		dir := writeProject(t, `{"scripts":{"test":"vitest run"}}`, true)

		gomock.InOrder(
			run.EXPECT().Run(gomock.Any(), dir, "npm", "ci", "--no-audit", "--no-fund").
				Return(runner.Result{}, nil),
			run.EXPECT().Run(gomock.Any(), dir, "npm", "test").
				Return(runner.Result{}, nil),
		)

		_, err := New(run, logger).Run(ctx, dir)
		assert.NoError(t, err)
	})

	t.Run("Playwright projects get a browser engine first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		run := mocks.NewMockRunner(ctrl)
		dir := writeProject(t, `{
			"scripts": {"test": "playwright test"},
			"devDependencies": {"@playwright/test": "^1.44.0"}
		}`, false)

		gomock.InOrder(
			run.EXPECT().Run(gomock.Any(), dir, "npm", "install", "--no-audit", "--no-fund").
				Return(runner.Result{}, nil),
			run.EXPECT().Run(gomock.Any(), dir, "npx", "playwright", "install", "--with-deps").
				Return(runner.Result{}, nil),
			run.EXPECT().Run(gomock.Any(), dir, "npm", "test").
				Return(runner.Result{}, nil),
		)

		_, err := New(run, logger).Run(ctx, dir)
		assert.NoError(t, err)
	})

	t.Run("Failing tests return the accumulated output", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		run := mocks.NewMockRunner(ctrl)
		dir := writeProject(t, `{"scripts":{"test":"vitest run"}}`, false)

		gomock.InOrder(
			run.EXPECT().Run(gomock.Any(), dir, "npm", "install", "--no-audit", "--no-fund").
				Return(runner.Result{Output: "installed\n"}, nil),
			run.EXPECT().Run(gomock.Any(), dir, "npm", "test").
				Return(runner.Result{Output: "1 failed\n", ExitCode: 1}, nil),
		)

		out, err := New(run, logger).Run(ctx, dir)

		var cmdErr *core.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, "test run", cmdErr.Step)
		assert.Equal(t, 1, cmdErr.ExitCode)
		assert.Contains(t, cmdErr.Output, "installed")
		assert.Contains(t, cmdErr.Output, "1 failed")
		assert.Equal(t, "installed\n1 failed\n", out)
	})

	t.Run("Failing install never reaches the test command", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		run := mocks.NewMockRunner(ctrl)
		dir := writeProject(t, `{"scripts":{"test":"vitest run"}}`, false)

		run.EXPECT().Run(gomock.Any(), dir, "npm", "install", "--no-audit", "--no-fund").
			Return(runner.Result{Output: "EACCES\n", ExitCode: 243}, nil)

		_, err := New(run, logger).Run(ctx, dir)

		var cmdErr *core.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, "dependency install", cmdErr.Step)
	})
}

func TestHasRealTestScript(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   bool
	}{
		{"Real command", "vitest run", true},
		{"Placeholder", `echo "Error: no test specified" && exit 1`, false},
		{"Placeholder different case", `echo "NO TEST SPECIFIED"`, false},
		{"Blank", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := &packageJSON{Scripts: map[string]string{"test": tt.script}}
			assert.Equal(t, tt.want, hasRealTestScript(pkg))
		})
	}

	t.Run("No scripts at all", func(t *testing.T) {
		assert.False(t, hasRealTestScript(&packageJSON{}))
	})
}
