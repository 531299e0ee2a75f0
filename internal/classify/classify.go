// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides, with an OpenAI-compatible language model,
// whether a citing paper is about protecting the copyright of the model
// itself and files it under the research taxonomy.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

const (
	failedSummary  = "Analysis failed."
	rawExcerptSize = 200
)

// Completer sends a system + user exchange to a chat model. *ChatClient
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Classifier produces AnalysisResults. It is safe for concurrent use as
// long as its Completer is.
type Classifier struct {
	chat         Completer
	taxonomy     *Taxonomy
	systemPrompt string
	includeExtra bool
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

// NewClassifier renders the system prompt for taxonomy (DefaultTaxonomy
// when nil) once and returns a ready Classifier. metrics may be nil.
func NewClassifier(chat Completer, taxonomy *Taxonomy, includeExtra bool, logger zerolog.Logger, metrics *observability.Metrics) (*Classifier, error) {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	system, err := SystemPrompt(taxonomy)
	if err != nil {
		return nil, fmt.Errorf("rendering system prompt: %w", err)
	}
	return &Classifier{
		chat:         chat,
		taxonomy:     taxonomy,
		systemPrompt: system,
		includeExtra: includeExtra,
		logger:       logger.With().Str("component", "classify").Logger(),
		metrics:      metrics,
	}, nil
}

// Analyze classifies one paper. It never fails: transport and parse
// problems come back as a fallback result whose reasoning records the cause.
func (c *Classifier) Analyze(ctx context.Context, p types.CitingPaper) types.AnalysisResult {
	log := observability.WithPaper(c.logger, p.Title)
	start := time.Now()

	user, err := UserPrompt(p, c.includeExtra)
	if err != nil {
		return c.fail(start, fmt.Sprintf("Analysis error: %v", err))
	}

	reply, err := c.chat.Complete(ctx, c.systemPrompt, user)
	if err != nil {
		log.Error().Err(err).Msg("classification request failed")
		return c.fail(start, fmt.Sprintf("Analysis error: %v", err))
	}

	result, ok := c.Parse(reply)
	if !ok {
		log.Warn().Str("reasoning", result.Reasoning).Msg("could not parse classification")
		c.metrics.RecordClassification("fallback", time.Since(start))
		return result
	}

	outcome := "irrelevant"
	if result.IsModelCopyrightProtection {
		outcome = "relevant"
	}
	c.metrics.RecordClassification(outcome, time.Since(start))
	log.Debug().Bool("relevant", result.IsModelCopyrightProtection).Msg("classified paper")
	return result
}

func (c *Classifier) fail(start time.Time, reasoning string) types.AnalysisResult {
	c.metrics.RecordClassification("fallback", time.Since(start))
	return Fallback(reasoning)
}

// rawResult mirrors the JSON object the model is asked to produce.
type rawResult struct {
	IsModelCopyrightProtection bool    `json:"is_model_copyright_protection"`
	Reasoning                  string  `json:"reasoning"`
	Category                   *string `json:"category"`
	Subcategory                *string `json:"subcategory"`
	Confidence                 *string `json:"classification_confidence"`
	BriefSummary               string  `json:"brief_summary"`
}

// Parse extracts the result object from a model reply. The object is taken
// from the first "{" to the last "}", so surrounding prose and code fences
// are tolerated. Category keys outside the taxonomy and unknown confidence
// labels are cleared. ok is false when the fallback was returned.
func (c *Classifier) Parse(reply string) (types.AnalysisResult, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return Fallback("Failed to parse LLM response: " + excerpt(reply, rawExcerptSize)), false
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return Fallback(fmt.Sprintf("JSON parse error: %v", err)), false
	}

	result := types.AnalysisResult{
		IsModelCopyrightProtection: raw.IsModelCopyrightProtection,
		Reasoning:                  raw.Reasoning,
		BriefSummary:               raw.BriefSummary,
	}

	category := trimmed(raw.Category)
	if category != "" && c.taxonomy.Valid(category, "") {
		result.Category = &category
		if sub := trimmed(raw.Subcategory); sub != "" && c.taxonomy.Valid(category, sub) {
			result.Subcategory = &sub
		}
	}
	if raw.Confidence != nil {
		if conf, ok := types.ParseConfidence(*raw.Confidence); ok {
			result.Confidence = &conf
		}
	}
	return result, true
}

// Fallback is the result recorded when a paper could not be classified.
func Fallback(reasoning string) types.AnalysisResult {
	low := types.ConfidenceLow
	return types.AnalysisResult{
		IsModelCopyrightProtection: false,
		Reasoning:                  reasoning,
		Confidence:                 &low,
		BriefSummary:               failedSummary,
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// NewFromConfig connects a ChatClient for cfg and wraps it in a Classifier
// over the default taxonomy.
func NewFromConfig(ctx context.Context, cfg types.LLMConfig, logger zerolog.Logger, metrics *observability.Metrics) (*Classifier, error) {
	chat := NewChatClient(ctx, cfg, logger)
	return NewClassifier(chat, nil, cfg.IncludeExtraFields, logger, metrics)
}
