// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared across the monitor: seed papers,
// citing papers, classification results, progress events, and configuration.
package types

import (
	"strings"
)

// maxDisplayAuthors is the number of author names kept before the list is
// cut off with "et al.".
const maxDisplayAuthors = 5

// SeedPaper is a reference paper whose citations are monitored. Seeds are
// extracted from the project's paper listings or supplied by the caller.
type SeedPaper struct {
	// Title is the paper title. Required.
	Title string `json:"title" yaml:"title" validate:"required"`

	// URL is the link recorded next to the title (often an arXiv abstract page).
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// SourceFile names the listing the seed was extracted from.
	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`

	// ArxivID is parsed from URL when it points at arxiv.org/abs/.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
}

// Key returns the seed's identity key in the same namespace as
// CitingPaper.IdentityKey, so seeds can pre-populate a seen set.
func (s SeedPaper) Key() string {
	return TitleKey(s.Title)
}

// CitingPaper is a paper that cites at least one seed. Instances are created
// by the discovery engine from bibliographic API records.
type CitingPaper struct {
	Title string `json:"title" yaml:"title"`

	// Authors is the display form: the first five names joined by ", ",
	// followed by " et al." when the record listed more.
	Authors string `json:"authors" yaml:"authors"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	Venue         string `json:"venue" yaml:"venue"`
	Abstract      string `json:"abstract" yaml:"abstract"`
	URL           string `json:"url" yaml:"url"`
	ScholarID     string `json:"semantic_scholar_id,omitempty" yaml:"semantic_scholar_id,omitempty"`
	CitationCount int    `json:"citation_count" yaml:"citation_count"`

	// CitedPaper is the title of the seed whose citation list produced this
	// record. When several seeds are cited, the first discovery wins.
	CitedPaper string `json:"cited_paper" yaml:"cited_paper"`
}

// IdentityKey returns "s2:<id>" when the external identifier is known and
// "title:<normalized title>" otherwise. Two records with the same key are
// the same paper.
func (p CitingPaper) IdentityKey() string {
	if p.ScholarID != "" {
		return "s2:" + p.ScholarID
	}
	return TitleKey(p.Title)
}

// TitleKey returns the title-based identity key.
func TitleKey(title string) string {
	return "title:" + NormalizeTitle(title)
}

// NormalizeTitle collapses runs of whitespace to a single space, trims, and
// lower-cases. Every title comparison in the module goes through it.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// FormatAuthors renders an ordered author list in display form.
func FormatAuthors(names []string) string {
	var kept []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) <= maxDisplayAuthors {
		return strings.Join(kept, ", ")
	}
	return strings.Join(kept[:maxDisplayAuthors], ", ") + " et al."
}
