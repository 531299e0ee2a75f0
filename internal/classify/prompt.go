// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"strconv"
	"text/template"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// systemPromptTmpl explains the relevance question, lists every taxonomy
// entry, and fixes the JSON shape of the answer.
var systemPromptTmpl = template.Must(template.New("system").Parse(`You are an expert in LLM copyright protection research. Your task is to analyze academic paper abstracts and determine:

1. Whether the paper focuses on MODEL copyright protection (protecting the LLM model itself from unauthorized use, copying, or derivative works) - NOT text watermarking (which is about marking generated text to trace its origin).

2. If it is about model copyright protection, classify it into the appropriate category.

**IMPORTANT DISTINCTION:**
- MODEL copyright protection: Techniques to protect the model's intellectual property, trace model origins, verify model ownership, detect model theft/copying. This includes model fingerprinting, model watermarking (embedding marks in model weights or behavior), ownership verification.
- TEXT watermarking (NOT what we want): Techniques to mark/watermark the TEXT OUTPUT generated by LLMs to detect AI-generated content. This is about tracing text origin, not model origin.

**Categories for MODEL copyright protection:**
{{range .Categories}}
## {{.Name}} (category key: {{.Key}})
{{- range .Subcategories}}
  - {{.Key}}: {{.Description}}
{{- end}}
{{end}}
**Response Format (JSON):**
{
    "is_model_copyright_protection": true/false,
    "reasoning": "Brief explanation of why this is/isn't about model copyright protection",
    "category": "category_key" or null,
    "subcategory": "subcategory_key" or null,
    "classification_confidence": "high/medium/low",
    "brief_summary": "One-sentence summary of the paper's contribution"
}

If the paper is about TEXT watermarking (marking LLM-generated text), set is_model_copyright_protection to false.
If the paper is about general deep learning watermarking but not specifically for LLMs, note this in reasoning but still classify if applicable.
`))

var userPromptTmpl = template.Must(template.New("user").Parse(`Please analyze the following paper:

**Title:** {{.Title}}

**Abstract:**
{{.Abstract}}
{{- if .Extra}}

**Year:** {{.Year}}
**Venue:** {{.Venue}}
{{- end}}

Determine if this paper is about MODEL copyright protection (not text watermarking) and classify it accordingly.`))

const (
	missingAbstract = "(Abstract not available)"
	unknownField    = "Unknown"
)

// SystemPrompt renders the system prompt for taxonomy t.
func SystemPrompt(t *Taxonomy) (string, error) {
	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, t); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// UserPrompt renders the per-paper message. Year and venue are included
// only when extra is set.
func UserPrompt(p types.CitingPaper, extra bool) (string, error) {
	data := struct {
		Title, Abstract, Year, Venue string
		Extra                        bool
	}{
		Title:    p.Title,
		Abstract: p.Abstract,
		Year:     unknownField,
		Venue:    p.Venue,
		Extra:    extra,
	}
	if data.Abstract == "" {
		data.Abstract = missingAbstract
	}
	if p.Year > 0 {
		data.Year = strconv.Itoa(p.Year)
	}
	if data.Venue == "" {
		data.Venue = unknownField
	}

	var buf bytes.Buffer
	if err := userPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
