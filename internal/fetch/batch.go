// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/concept-miner/internal/ledger"
	"github.com/pdiddy/concept-miner/pkg/types"
)

// DefaultWorkers bounds concurrent fetches when the caller passes <= 0.
const DefaultWorkers = 8

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Fetched    int
	Skipped    int
	Failed     int
	Redirected int
}

// Total returns the number of distinct titles considered.
func (r BatchResult) Total() int {
	return r.Fetched + r.Skipped + r.Failed
}

// HasFailures reports whether any title failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// LoadTitles reads a JSON array of page titles.
func LoadTitles(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading titles: %w", err)
	}
	var titles []string
	if err := json.Unmarshal(data, &titles); err != nil {
		return nil, fmt.Errorf("parsing titles %s: %w", path, err)
	}
	return titles, nil
}

// Pending trims titles, drops blanks and duplicates, and removes those
// already recorded in done. Titles whose page file would collide with an
// earlier title's (e.g. "A/B" and "A_B") are logged and dropped so two
// workers never write the same file. Order is preserved.
func Pending(titles []string, done *ledger.Ledger) (pending []string, skipped, collided int) {
	seen := make(map[string]bool, len(titles))
	files := make(map[string]string, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if done != nil && done.Contains(t) {
			skipped++
			continue
		}
		name := types.FileName(t)
		if first, ok := files[name]; ok {
			log.Warn().Str("title", t).Str("kept", first).Str("file", name+pageExt).
				Msg("title maps to the same page file as another title, skipping")
			collided++
			continue
		}
		files[name] = t
		pending = append(pending, t)
	}
	return pending, skipped, collided
}

// FetchBatch fetches titles with at most workers requests in flight.
// Each success is recorded in done immediately, so an interrupted run
// resumes where it stopped. Failures are reported and never abort the
// batch; titles not started before ctx is cancelled count as failed.
func FetchBatch(ctx context.Context, f *Fetcher, titles []string, done *ledger.Ledger, workers int, w io.Writer) BatchResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	out := &syncWriter{w: w}

	pending, skipped, collided := Pending(titles, done)
	fmt.Fprintf(out, "%d title(s) to fetch, %d already done\n", len(pending), skipped)
	if collided > 0 {
		fmt.Fprintf(out, "%d title(s) not fetched: page file name taken by another title\n", collided)
	}

	var fetched, failed, redirected atomic.Int64
	failed.Add(int64(collided))
	var g errgroup.Group
	g.SetLimit(workers)
	for _, title := range pending {
		if ctx.Err() != nil {
			failed.Add(1)
			continue
		}
		title := title
		g.Go(func() error {
			doc, err := f.Fetch(ctx, title)
			if err != nil {
				failed.Add(1)
				fmt.Fprintf(out, "failed:  %s (%v)\n", title, err)
				return nil
			}
			fetched.Add(1)
			if doc.Redirected() {
				redirected.Add(1)
				fmt.Fprintf(out, "fetched: %s -> %s\n", title, doc.FinalTitle)
			} else {
				fmt.Fprintf(out, "fetched: %s\n", title)
			}
			if done != nil {
				if _, err := done.AddAndSave(title); err != nil {
					log.Error().Err(err).Str("title", title).Msg("recording fetched title")
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{
		Fetched:    int(fetched.Load()),
		Skipped:    skipped,
		Failed:     int(failed.Load()),
		Redirected: int(redirected.Load()),
	}
	fmt.Fprintf(out, "\nBatch summary: %d fetched, %d skipped, %d failed, %d via redirect (total: %d)\n",
		result.Fetched, result.Skipped, result.Failed, result.Redirected, result.Total())
	return result
}

// syncWriter serialises progress lines from concurrent workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
