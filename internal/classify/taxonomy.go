// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	_ "embed"
	"fmt"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

// Subcategory is a leaf of the taxonomy.
type Subcategory struct {
	Key         string `json:"key" yaml:"key"`
	Description string `json:"description" yaml:"description"`
}

// Category groups related subcategories.
type Category struct {
	Key           string        `json:"key" yaml:"key"`
	Name          string        `json:"name" yaml:"name"`
	Description   string        `json:"description" yaml:"description"`
	Subcategories []Subcategory `json:"subcategories" yaml:"subcategories"`
}

// Taxonomy is the closed, ordered set of categories a relevant paper can
// be filed under.
type Taxonomy struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// ParseTaxonomy decodes a taxonomy document and checks that keys are
// present and unique.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}

	seen := map[string]bool{}
	for _, c := range t.Categories {
		if c.Key == "" {
			return nil, fmt.Errorf("taxonomy category %q has no key", c.Name)
		}
		if seen[c.Key] {
			return nil, fmt.Errorf("duplicate taxonomy category %q", c.Key)
		}
		seen[c.Key] = true
		subs := map[string]bool{}
		for _, s := range c.Subcategories {
			if s.Key == "" || subs[s.Key] {
				return nil, fmt.Errorf("invalid subcategory %q in category %q", s.Key, c.Key)
			}
			subs[s.Key] = true
		}
	}
	return &t, nil
}

var (
	defaultOnce     sync.Once
	defaultTaxonomy *Taxonomy
)

// DefaultTaxonomy returns the embedded taxonomy. It panics if the embedded
// document is invalid, which the package tests rule out.
func DefaultTaxonomy() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := ParseTaxonomy(taxonomyYAML)
		if err != nil {
			panic(err)
		}
		defaultTaxonomy = t
	})
	return defaultTaxonomy
}

// Category returns the category with key, if any.
func (t *Taxonomy) Category(key string) (Category, bool) {
	for _, c := range t.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// Valid reports whether category is a known key and sub, when non-empty,
// belongs to it.
func (t *Taxonomy) Valid(category, sub string) bool {
	c, ok := t.Category(category)
	if !ok {
		return false
	}
	if sub == "" {
		return true
	}
	for _, s := range c.Subcategories {
		if s.Key == sub {
			return true
		}
	}
	return false
}
