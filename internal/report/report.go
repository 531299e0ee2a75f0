// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the dated monitor outputs (all citations, relevant
// papers, Markdown summary) and serves them back by name.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pdiddy/scholar-monitor/internal/analyze"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

const (
	allPrefix      = "all_citations_"
	relevantPrefix = "scholar_relevant_"
	summaryPrefix  = "scholar_summary_"
)

var (
	// ErrInvalidLogName is returned for names that could escape the report directory.
	ErrInvalidLogName = errors.New("invalid report name")

	// ErrLogNotFound is returned when the named report does not exist.
	ErrLogNotFound = errors.New("report not found")
)

// AllCitations is the all_citations_<date>.json document.
type AllCitations struct {
	Total  int                   `json:"total"`
	Papers []types.AnalyzedPaper `json:"papers"`
}

// RelevantPapers is the scholar_relevant_<date>.json document.
type RelevantPapers struct {
	Date                string                `json:"date"`
	TotalCitationsFound int                   `json:"total_citations_found"`
	RelevantPapersCount int                   `json:"relevant_papers_count"`
	Papers              []types.AnalyzedPaper `json:"papers"`
}

// Paths lists the files written by Save.
type Paths struct {
	All      string `json:"all"`
	Relevant string `json:"relevant"`
	Summary  string `json:"summary"`
}

// DateStamp formats now as YYYYMMDD in the named zone (the default zone
// when empty). Unknown zones fall back to UTC.
func DateStamp(now time.Time, zone string) string {
	if zone == "" {
		zone = types.DefaultTimezone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("20060102")
}

// Save writes the three dated reports for papers into dir.
func Save(dir, date string, papers []types.AnalyzedPaper) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating report directory: %w", err)
	}
	if papers == nil {
		papers = []types.AnalyzedPaper{}
	}
	relevant := analyze.Relevant(papers)
	if relevant == nil {
		relevant = []types.AnalyzedPaper{}
	}

	paths := Paths{
		All:      filepath.Join(dir, allPrefix+date+".json"),
		Relevant: filepath.Join(dir, relevantPrefix+date+".json"),
		Summary:  filepath.Join(dir, summaryPrefix+date+".md"),
	}

	if err := writeJSON(paths.All, AllCitations{Total: len(papers), Papers: papers}); err != nil {
		return Paths{}, err
	}
	if err := writeJSON(paths.Relevant, RelevantPapers{
		Date:                date,
		TotalCitationsFound: len(papers),
		RelevantPapersCount: len(relevant),
		Papers:              relevant,
	}); err != nil {
		return Paths{}, err
	}

	summary, err := RenderSummary(date, len(papers), relevant)
	if err != nil {
		return Paths{}, fmt.Errorf("rendering summary: %w", err)
	}
	if err := os.WriteFile(paths.Summary, []byte(summary), 0o644); err != nil {
		return Paths{}, fmt.Errorf("writing %s: %w", paths.Summary, err)
	}
	return paths, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// List returns the JSON reports in dir, newest name first. A missing
// directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading report directory: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.HasPrefix(name, relevantPrefix) || strings.HasPrefix(name, allPrefix) {
			names = append(names, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// ValidateName rejects names containing "..", "/" or "\".
func ValidateName(name string) error {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidLogName, name)
	}
	return nil
}

// Load returns the raw contents of the named report.
func Load(dir, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLogNotFound, name)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}
