// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds the working state of one interactive monitor
// session: the seed list, the last discovered citations, and the last
// analysis results. A Session is created by its owner and passed to
// whatever serves it; nothing here is global.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// Session is safe for concurrent use. Getters return copies.
type Session struct {
	mu        sync.RWMutex
	seeds     []types.SeedPaper
	citations []types.CitingPaper
	analyzed  []types.AnalyzedPaper
}

// New returns an empty Session.
func New() *Session {
	return &Session{}
}

func (s *Session) Seeds() []types.SeedPaper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.SeedPaper(nil), s.seeds...)
}

// SetSeeds replaces the seed list. Entries with a blank title are dropped.
func (s *Session) SetSeeds(seeds []types.SeedPaper) int {
	kept := make([]types.SeedPaper, 0, len(seeds))
	for _, seed := range seeds {
		seed.Title = strings.TrimSpace(seed.Title)
		if seed.Title != "" {
			kept = append(kept, seed)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = kept
	return len(kept)
}

// AddSeed appends a seed and returns the new seed count.
func (s *Session) AddSeed(seed types.SeedPaper) (int, error) {
	seed.Title = strings.TrimSpace(seed.Title)
	if seed.Title == "" {
		return 0, fmt.Errorf("seed title is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = append(s.seeds, seed)
	return len(s.seeds), nil
}

// RemoveSeed deletes the seed at index and returns it.
func (s *Session) RemoveSeed(index int) (types.SeedPaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.seeds) {
		return types.SeedPaper{}, fmt.Errorf("seed index %d out of range [0, %d)", index, len(s.seeds))
	}
	removed := s.seeds[index]
	s.seeds = append(s.seeds[:index:index], s.seeds[index+1:]...)
	return removed, nil
}

func (s *Session) Citations() []types.CitingPaper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.CitingPaper(nil), s.citations...)
}

func (s *Session) SetCitations(papers []types.CitingPaper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.citations = append([]types.CitingPaper(nil), papers...)
}

func (s *Session) Analyzed() []types.AnalyzedPaper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.AnalyzedPaper(nil), s.analyzed...)
}

func (s *Session) SetAnalyzed(papers []types.AnalyzedPaper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzed = append([]types.AnalyzedPaper(nil), papers...)
}
