// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seeds extracts seed papers from the project's paper listing pages.
// Listings embed entries as JavaScript object literals of the form
// { title: "...", ..., link: "..." }; entries inside /* */ comments are
// treated as removed.
package seeds

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	entryPattern = regexp.MustCompile(`(?s)\{\s*title:\s*["']([^"']+)["'].*?link:\s*["']([^"']+)["']`)
	arxivPattern = regexp.MustCompile(`arxiv\.org/abs/(\d+\.\d+)`)
)

// ExtractFile returns the seed entries in one listing, in document order.
// HTML documents are parsed and only their <script> bodies are scanned;
// other files are scanned whole.
func ExtractFile(path string) ([]types.SeedPaper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text := string(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		scripts, err := scriptText(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if scripts != "" {
			text = scripts
		}
	}
	return Parse(text, filepath.Base(path)), nil
}

// Parse scans JavaScript source for seed entries, tagging each with source.
func Parse(src, source string) []types.SeedPaper {
	src = blockComment.ReplaceAllString(src, "")

	var out []types.SeedPaper
	for _, m := range entryPattern.FindAllStringSubmatch(src, -1) {
		title := strings.TrimSpace(strings.ReplaceAll(m[1], `\'`, "'"))
		if title == "" {
			continue
		}
		seed := types.SeedPaper{
			Title:      title,
			URL:        m[2],
			SourceFile: source,
		}
		if am := arxivPattern.FindStringSubmatch(m[2]); am != nil {
			seed.ArxivID = am[1]
		}
		out = append(out, seed)
	}
	return out
}

// scriptText concatenates the bodies of every <script> element.
func scriptText(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
					sb.WriteByte('\n')
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String(), nil
}

// ExtractAll extracts seeds from each file in dir, in order, keeping the
// first occurrence of each normalized title. Missing files are logged and
// skipped; other read errors abort.
func ExtractAll(dir string, files []string, logger zerolog.Logger) ([]types.SeedPaper, error) {
	if len(files) == 0 {
		files = types.DefaultSeedFiles
	}

	seen := map[string]bool{}
	var all []types.SeedPaper
	for _, name := range files {
		path := filepath.Join(dir, name)
		found, err := ExtractFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("file", path).Msg("seed listing not found")
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, s := range found {
			key := types.NormalizeTitle(s.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, s)
		}
		logger.Info().Str("file", name).Int("papers", len(found)).Msg("extracted seed papers")
	}

	logger.Info().Int("total", len(all)).Msg("unique seed papers")
	return all, nil
}
