package aggregator

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	pstrings "scrollvault/pkg/platform/strings"
)

// RepoList is the repos file layout:
//
//	repos:
//	  - org/repo-1
//	  - org/repo-2
type RepoList struct {
	Repos []string `yaml:"repos"`
}

var ErrNoRepos = errors.New("repos file lists no repositories")

// LoadRepos reads the repos file, trimming and de-duplicating names.
func LoadRepos(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read repos file: %w", err)
	}
	var list RepoList
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse repos file %s: %w", path, err)
	}
	repos := pstrings.DedupeAndTrim(list.Repos)
	if len(repos) == 0 {
		return nil, ErrNoRepos
	}
	return repos, nil
}
