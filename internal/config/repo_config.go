package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrRepoConfigNotFound = errors.New("repo config file not found")
	ErrRepoConfigParsing  = errors.New("repo config parsing failed")
)

// RepoConfig holds per-repository overrides read from a .review-agent.yml
// file at the root of the checked-out repository. Pointer fields distinguish
// "not set" from an explicit false or zero.
type RepoConfig struct {
	RunTests            *bool `yaml:"run_tests"`
	CollectFileContents *bool `yaml:"collect_file_contents"`
	DiffContextLines    *int  `yaml:"diff_context_lines"`
}

// LoadRepoConfig loads and parses the .review-agent.yml file from a
// repository path. A missing file is reported as ErrRepoConfigNotFound so
// callers can fall back to the service defaults; a malformed one is an error.
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	configPath := filepath.Join(repoPath, ".review-agent.yml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoConfig{}, ErrRepoConfigNotFound
		}
		return nil, fmt.Errorf("failed to read .review-agent.yml: %w", err)
	}

	var rc RepoConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepoConfigParsing, err)
	}
	return &rc, nil
}

// Apply overlays the repository overrides onto a copy of the review settings.
func (rc *RepoConfig) Apply(base ReviewConfig) ReviewConfig {
	if rc.RunTests != nil {
		base.RunTests = *rc.RunTests
	}
	if rc.CollectFileContents != nil {
		base.CollectFileContents = *rc.CollectFileContents
	}
	if rc.DiffContextLines != nil && *rc.DiffContextLines >= 0 {
		base.DiffContextLines = *rc.DiffContextLines
	}
	return base
}
