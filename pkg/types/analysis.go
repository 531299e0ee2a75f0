// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Confidence is the classifier's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence maps a free-form label onto a Confidence. The second
// return value is false for anything outside high/medium/low.
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, true
	default:
		return "", false
	}
}

// AnalysisResult is the verdict produced for one citing paper.
type AnalysisResult struct {
	// IsModelCopyrightProtection is true when the paper protects the model
	// itself (fingerprinting, weight watermarking, ownership verification),
	// as opposed to watermarking generated text.
	IsModelCopyrightProtection bool `json:"is_model_copyright_protection" yaml:"is_model_copyright_protection"`

	Reasoning string `json:"reasoning" yaml:"reasoning"`

	// Category and Subcategory are taxonomy keys, nil when not applicable.
	Category    *string `json:"category" yaml:"category"`
	Subcategory *string `json:"subcategory" yaml:"subcategory"`

	// Confidence is nil for results that were not produced by the classifier
	// (for example papers skipped because they are seeds).
	Confidence *Confidence `json:"classification_confidence" yaml:"classification_confidence"`

	BriefSummary string `json:"brief_summary" yaml:"brief_summary"`
}

// Relevant reports whether the result marks the paper as in scope.
func (r *AnalysisResult) Relevant() bool {
	return r != nil && r.IsModelCopyrightProtection
}

// AnalyzedPaper pairs a citing paper with its analysis. Analysis is nil when
// the analysis stage was skipped.
type AnalyzedPaper struct {
	CitingPaper `yaml:",inline"`

	Analysis *AnalysisResult `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Unanalyzed wraps citing papers without analysis results.
func Unanalyzed(papers []CitingPaper) []AnalyzedPaper {
	out := make([]AnalyzedPaper, len(papers))
	for i, p := range papers {
		out[i] = AnalyzedPaper{CitingPaper: p}
	}
	return out
}
