// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls [[wikilink]] concepts out of fetched page markup and
// walks the pages directory incrementally, recording finished files in a
// ledger so later runs only look at new pages.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/concept-miner/internal/ledger"
	"github.com/pdiddy/concept-miner/pkg/types"
)

// ErrMissingInput is returned when the pages directory cannot be listed.
var ErrMissingInput = errors.New("missing input")

const (
	pageExt          = ".txt"
	defaultSaveEvery = 10
)

// linkPattern matches the shortest [[...]] span; '.' stops at newlines.
var linkPattern = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Extract returns the trimmed, non-empty contents of every [[...]] span in
// first-occurrence order. Piped links are kept whole: "[[Bar|Baz]]" yields
// "Bar|Baz".
func Extract(text string) []string {
	matches := linkPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m[1]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExtractTargets is the stricter variant of Extract that keeps only the link
// target before the first pipe: "[[Bar|Baz]]" yields "Bar".
func ExtractTargets(text string) []string {
	all := Extract(text)
	out := all[:0]
	for _, s := range all {
		if i := strings.IndexByte(s, '|'); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ForMode returns the extraction function for a pipe mode. Unknown or empty
// modes fall back to whole-link extraction.
func ForMode(mode types.PipeMode) func(string) []string {
	if mode == types.PipeTarget {
		return ExtractTargets
	}
	return Extract
}

// ExtractFile reads path and extracts its concepts with the given mode.
func ExtractFile(path string, mode types.PipeMode) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ForMode(mode)(string(data)), nil
}

// Sink receives the concepts of each processed file. Re-processing a file
// replaces what was recorded for it before. Has reports whether a file's
// concepts are already held.
type Sink interface {
	ReplaceFile(ctx context.Context, name string, concepts []string) error
	Has(ctx context.Context, name string) (bool, error)
}

// Summary holds counts from an extraction pass.
type Summary struct {
	Found     int
	Processed int
	Skipped   int
	Failed    int
	Concepts  int
	// Extracted holds the concepts from files processed in this pass.
	Extracted []string
}

// Total returns the number of page files examined.
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// HasFailures reports whether any file could not be read or recorded.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// ListPages returns the .txt file names in dir sorted lexicographically.
// The suffix check ignores case.
func ListPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading pages directory %s: %v", ErrMissingInput, dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), pageExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ExtractAll processes every page in cfg.PagesDir that the ledger has not
// seen, hands the concepts to sink, and records the file in the ledger.
// A file counts as processed even when it holds no links. The ledger is
// saved every cfg.SaveEvery new files and once more at the end, so an
// interrupted run repeats at most SaveEvery-1 files. Ledger write failures
// are logged and the pass continues.
func ExtractAll(ctx context.Context, cfg types.ExtractionConfig, l *ledger.Ledger, sink Sink, w io.Writer) (Summary, error) {
	names, err := ListPages(cfg.PagesDir)
	if err != nil {
		return Summary{}, err
	}

	saveEvery := cfg.SaveEvery
	if saveEvery <= 0 {
		saveEvery = defaultSaveEvery
	}
	extractFn := ForMode(cfg.PipeMode)

	summary := Summary{Found: len(names)}
	fmt.Fprintf(w, "found %d page file(s), %d already processed\n", len(names), l.Len())

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			saveLedger(l)
			return summary, err
		}
		if !cfg.Full && l.Contains(name) && stored(ctx, sink, name) {
			summary.Skipped++
			continue
		}

		data, err := os.ReadFile(filepath.Join(cfg.PagesDir, name))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		concepts := extractFn(string(data))

		if sink != nil {
			if err := sink.ReplaceFile(ctx, name, concepts); err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", name, err)
				summary.Failed++
				continue
			}
		}

		fmt.Fprintf(w, "extracted %s (%d)\n", name, len(concepts))
		summary.Extracted = append(summary.Extracted, concepts...)
		summary.Concepts += len(concepts)
		l.Add(name)
		summary.Processed++

		if summary.Processed%saveEvery == 0 {
			fmt.Fprintf(w, "  ...%d new file(s) processed, saving progress\n", summary.Processed)
			saveLedger(l)
		}
	}

	if summary.Processed > 0 {
		saveLedger(l)
	}
	fmt.Fprintf(w, "\nExtraction summary: %d processed, %d skipped, %d failed, %d concept(s) before filtering\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.Concepts)
	return summary, nil
}

// stored reports whether the sink still holds name. A ledger entry without
// stored concepts (fresh index, ledger from another tool) is re-extracted so
// the file reaches the aggregate.
func stored(ctx context.Context, sink Sink, name string) bool {
	if sink == nil {
		return true
	}
	ok, err := sink.Has(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("cannot check concept store, re-extracting")
		return false
	}
	if !ok {
		log.Info().Str("file", name).Msg("in ledger but not in concept store, re-extracting")
	}
	return ok
}

func saveLedger(l *ledger.Ledger) {
	if err := l.Save(); err != nil {
		log.Error().Err(err).Str("path", l.Path()).Msg("cannot persist ledger, progress will be redone next run")
	}
}
