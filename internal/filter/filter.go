// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter drops extracted concepts that contain an excluded keyword.
// The keyword lists are heuristic data: namespace prefixes, non-scientific
// domains, military and commercial terms.
package filter

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// KeywordSet is an ordered exclusion list. Keywords match by case-sensitive
// substring; CaseInsensitive entries match regardless of letter case.
type KeywordSet struct {
	Keywords        []string `yaml:"keywords"`
	CaseInsensitive []string `yaml:"case_insensitive"`
}

// Len returns the total number of keywords.
func (k KeywordSet) Len() int {
	return len(k.Keywords) + len(k.CaseInsensitive)
}

// Match returns the first keyword contained in text, or "" when none is.
func (k KeywordSet) Match(text string) string {
	for _, kw := range k.Keywords {
		if kw != "" && strings.Contains(text, kw) {
			return kw
		}
	}
	if len(k.CaseInsensitive) == 0 {
		return ""
	}
	lower := strings.ToLower(text)
	for _, kw := range k.CaseInsensitive {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// Excluded reports whether text is blank or contains any keyword.
func (k KeywordSet) Excluded(text string) bool {
	return strings.TrimSpace(text) == "" || k.Match(text) != ""
}

// Stats counts exclusions. Hits is keyed by the first keyword that matched;
// blank strings are counted in Blank.
type Stats struct {
	Excluded int
	Blank    int
	Hits     map[string]int
}

// Filter returns the concepts that survive the keyword set, in input order,
// and how many were excluded.
func Filter(concepts []string, set KeywordSet) (kept []string, excluded int) {
	kept, stats := FilterStats(concepts, set)
	return kept, stats.Excluded
}

// FilterStats is Filter with per-keyword hit counts.
func FilterStats(concepts []string, set KeywordSet) ([]string, Stats) {
	stats := Stats{Hits: make(map[string]int)}
	kept := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if strings.TrimSpace(c) == "" {
			stats.Blank++
			stats.Excluded++
			continue
		}
		if kw := set.Match(c); kw != "" {
			stats.Hits[kw]++
			stats.Excluded++
			continue
		}
		kept = append(kept, c)
	}
	return kept, stats
}

// LoadKeywords reads a YAML keyword file of the form
//
//	keywords: ["Category:", "File:"]
//	case_insensitive: ["Inc.", "Ltd."]
func LoadKeywords(path string) (KeywordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordSet{}, fmt.Errorf("reading keyword file: %w", err)
	}
	var set KeywordSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return KeywordSet{}, fmt.Errorf("parsing keyword file %s: %w", path, err)
	}
	if set.Len() == 0 {
		return KeywordSet{}, fmt.Errorf("keyword file %s defines no keywords", path)
	}
	return set, nil
}
