// Package aggregator folds per-repository audit findings from a CI cache
// directory into one de-duplicated report.
package aggregator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	pstrings "scrollvault/pkg/platform/strings"
)

const defaultSeverity = "low"

var (
	Severities   = []string{"critical", "high", "medium", "low"}
	FindingTypes = []string{"secret_scanning", "large_files", "merge_conflicts", "yaml_errors", "type_errors", "lint_errors"}
)

type Finding struct {
	Hash     string `json:"hash"`
	Repo     string `json:"repo"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	File     string `json:"file"`
	Details  any    `json:"details"`
}

type Summary struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	ByType     map[string]int `json:"by_type"`
}

type Report struct {
	Timestamp    string    `json:"timestamp"`
	ReposScanned int       `json:"repos_scanned"`
	Findings     []Finding `json:"findings"`
	Summary      Summary   `json:"summary"`
}

type cacheFile struct {
	Findings []struct {
		Type     string `json:"type"`
		Severity string `json:"severity"`
		File     string `json:"file"`
		Details  any    `json:"details"`
	} `json:"findings"`
}

type Aggregator struct {
	cacheDir string
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(cacheDir string, opts ...Option) *Aggregator {
	a := &Aggregator{
		cacheDir: cacheDir,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FindingHash is the first 16 hex chars of sha256("repo:type:file").
func FindingHash(repo, findingType, file string) string {
	sum := sha256.Sum256([]byte(repo + ":" + findingType + ":" + file))
	return hex.EncodeToString(sum[:])[:16]
}

// CacheFile is where CI drops the findings for repo.
func CacheFile(cacheDir, repo string) string {
	return filepath.Join(cacheDir, strings.ReplaceAll(repo, "/", "_")+".json")
}

// Collect builds the report for repos. A missing cache directory yields an
// empty report; a repo file that cannot be read or parsed is logged and
// skipped.
func (a *Aggregator) Collect(ctx context.Context, repos []string) (*Report, error) {
	report := &Report{
		Timestamp:    a.now().UTC().Format(time.RFC3339),
		ReposScanned: len(repos),
		Findings:     []Finding{},
		Summary:      newSummary(),
	}

	if _, err := os.Stat(a.cacheDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			a.logger.WarnContext(ctx, "audit cache directory not found", "dir", a.cacheDir)
			return report, nil
		}
		return nil, fmt.Errorf("stat audit cache: %w", err)
	}

	var all []Finding
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := a.readRepo(repo)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			a.logger.WarnContext(ctx, "skipping unreadable audit cache file",
				"repo", repo,
				"file", CacheFile(a.cacheDir, repo),
				"error", err,
			)
			continue
		}
		all = append(all, found...)
	}

	report.Findings = append(report.Findings, pstrings.DedupeBy(all, func(f Finding) string { return f.Hash })...)
	if dropped := len(all) - len(report.Findings); dropped > 0 {
		a.logger.InfoContext(ctx, "dropped duplicate findings", "count", dropped)
	}
	for _, f := range report.Findings {
		report.Summary.add(f)
	}
	return report, nil
}

func (a *Aggregator) readRepo(repo string) ([]Finding, error) {
	raw, err := os.ReadFile(CacheFile(a.cacheDir, repo))
	if err != nil {
		return nil, err
	}
	var cf cacheFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}

	out := make([]Finding, 0, len(cf.Findings))
	for _, f := range cf.Findings {
		severity := f.Severity
		if severity == "" {
			severity = defaultSeverity
		}
		out = append(out, Finding{
			Hash:     FindingHash(repo, f.Type, f.File),
			Repo:     repo,
			Type:     f.Type,
			Severity: severity,
			File:     f.File,
			Details:  f.Details,
		})
	}
	return out, nil
}

func newSummary() Summary {
	s := Summary{
		BySeverity: make(map[string]int, len(Severities)),
		ByType:     make(map[string]int, len(FindingTypes)),
	}
	for _, sev := range Severities {
		s.BySeverity[sev] = 0
	}
	for _, t := range FindingTypes {
		s.ByType[t] = 0
	}
	return s
}

// add counts f. Unknown severities and types only count toward the total.
func (s *Summary) add(f Finding) {
	s.Total++
	if _, ok := s.BySeverity[f.Severity]; ok {
		s.BySeverity[f.Severity]++
	}
	if _, ok := s.ByType[f.Type]; ok {
		s.ByType[f.Type]++
	}
}

// WriteReport saves r as audit-<YYYYMMDD-HHMMSS>.json under dir and returns
// the path.
func WriteReport(dir string, r *Report, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(dir, "audit-"+at.UTC().Format("20060102-150405")+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
