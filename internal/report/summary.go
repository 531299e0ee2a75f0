// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"strconv"
	"text/template"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

const abstractLimit = 500

var summaryTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"inc":      func(i int) int { return i + 1 },
	"orNA":     orNA,
	"year":     year,
	"str":      strOrNone,
	"conf":     confidence,
	"abstract": truncateAbstract,
}).Parse(`# Semantic Scholar Citation Monitor - {{.Date}}

**Total citations found:** {{.Total}}
**Relevant papers:** {{len .Papers}}

---

{{range $i, $p := .Papers}}{{with $p.Analysis}}## {{inc $i}}. {{$p.Title}}

- **Year:** {{year $p.Year}}
- **Authors:** {{orNA $p.Authors}}
- **Venue:** {{orNA $p.Venue}}
- **Cited paper:** {{orNA $p.CitedPaper}}
- **Category:** {{str .Category}}/{{str .Subcategory}}
- **Confidence:** {{conf .Confidence}}
- **Summary:** {{orNA .BriefSummary}}

{{if $p.Abstract}}**Abstract:** {{abstract $p.Abstract}}

{{end}}**Reasoning:** {{orNA .Reasoning}}

---

{{end}}{{end}}`))

// RenderSummary renders the Markdown summary of the relevant papers.
func RenderSummary(date string, total int, relevant []types.AnalyzedPaper) (string, error) {
	var buf bytes.Buffer
	err := summaryTmpl.Execute(&buf, struct {
		Date   string
		Total  int
		Papers []types.AnalyzedPaper
	}{date, total, relevant})
	return buf.String(), err
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func year(y int) string {
	if y <= 0 {
		return "N/A"
	}
	return strconv.Itoa(y)
}

func strOrNone(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

func confidence(c *types.Confidence) string {
	if c == nil {
		return "N/A"
	}
	return string(*c)
}

func truncateAbstract(s string) string {
	r := []rune(s)
	if len(r) <= abstractLimit {
		return s
	}
	return string(r[:abstractLimit]) + "..."
}
