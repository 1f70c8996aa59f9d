// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate turns extracted concepts into the final result set:
// filtered, deduplicated by exact string equality and sorted byte-wise.
package aggregate

import (
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/concept-miner/internal/filter"
	"github.com/pdiddy/concept-miner/internal/fsutil"
)

// Result is the outcome of one aggregation.
type Result struct {
	// Concepts is the sorted unique kept set.
	Concepts []string
	// Input is the number of concept occurrences considered.
	Input int
	// Excluded is how many occurrences the filter removed.
	Excluded int
	// Hits counts exclusions per first-matching keyword.
	Hits map[string]int
}

// Duplicates returns how many kept occurrences collapsed into existing entries.
func (r Result) Duplicates() int {
	return r.Input - r.Excluded - len(r.Concepts)
}

// Aggregate filters concepts through keywords, removes duplicates and sorts
// the survivors. Sorting compares Go strings byte-wise, which for UTF-8 is
// code point order.
func Aggregate(concepts []string, keywords filter.KeywordSet) Result {
	kept, stats := filter.FilterStats(concepts, keywords)
	return Result{
		Concepts: Unique(kept),
		Input:    len(concepts),
		Excluded: stats.Excluded,
		Hits:     stats.Hits,
	}
}

// Unique returns the sorted distinct values of in. The result is never nil.
func Unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// WriteJSON replaces the artifact at path with concepts as an indented JSON
// array. Non-ASCII text is written as-is.
func WriteJSON(path string, concepts []string) error {
	data, err := fsutil.MarshalList(concepts)
	if err != nil {
		return fmt.Errorf("encoding result set: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing result set %s: %w", path, err)
	}
	return nil
}

// Report prints the aggregation counts and, when verbose, the keyword hits
// in descending order.
func Report(w io.Writer, r Result, verbose bool) {
	fmt.Fprintf(w, "filtered out %d of %d concept(s) by keyword\n", r.Excluded, r.Input)
	fmt.Fprintf(w, "%d unique concept(s) after deduplication (%d duplicate(s) removed)\n",
		len(r.Concepts), r.Duplicates())
	if !verbose || len(r.Hits) == 0 {
		return
	}

	type hit struct {
		keyword string
		count   int
	}
	hits := make([]hit, 0, len(r.Hits))
	for k, n := range r.Hits {
		hits = append(hits, hit{k, n})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].count != hits[j].count {
			return hits[i].count > hits[j].count
		}
		return hits[i].keyword < hits[j].keyword
	})
	fmt.Fprintln(w, "keyword hits:")
	for _, h := range hits {
		fmt.Fprintf(w, "  %-12q %d\n", h.keyword, h.count)
	}
}
