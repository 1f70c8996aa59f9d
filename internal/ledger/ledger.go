// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a durable, grow-only set of names that a stage has
// already finished with. The fetch stage records completed titles; the
// extract stage records processed page files. A name in the ledger is
// skipped on later runs until the ledger file is deleted.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/concept-miner/internal/fsutil"
)

// ErrCorrupt marks a ledger file that exists but does not decode as a JSON
// array of strings. Open recovers from it by starting empty.
var ErrCorrupt = errors.New("ledger file is corrupt")

// Ledger is a mutex-guarded set of names backed by a JSON array file.
type Ledger struct {
	mu    sync.Mutex
	path  string
	items map[string]struct{}
}

// Open loads the ledger at path. A missing or empty file yields an empty
// ledger. A malformed file is logged and also yields an empty ledger, so a
// damaged ledger only costs redundant work and never aborts a run.
func Open(path string) *Ledger {
	l := &Ledger{path: path, items: make(map[string]struct{})}

	names, err := read(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("no ledger yet, starting empty")
	case errors.Is(err, ErrCorrupt):
		log.Warn().Err(err).Str("path", path).Msg("ignoring corrupt ledger, treating as first run")
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("cannot read ledger, treating as first run")
	default:
		for _, n := range names {
			l.items[n] = struct{}{}
		}
	}
	return l
}

func read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		log.Info().Str("path", path).Msg("ledger file is empty, starting a new record")
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return names, nil
}

// Path returns the backing file.
func (l *Ledger) Path() string {
	return l.path
}

// Contains reports whether name was recorded.
func (l *Ledger) Contains(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.items[name]
	return ok
}

// Add records name in memory. It reports whether name was new.
func (l *Ledger) Add(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(name)
}

func (l *Ledger) add(name string) bool {
	if _, ok := l.items[name]; ok {
		return false
	}
	l.items[name] = struct{}{}
	return true
}

// AddAndSave records name and persists the ledger while holding the lock,
// so concurrent callers never interleave an update with another's write.
// The name stays recorded in memory even if the write fails.
func (l *Ledger) AddAndSave(name string) (added bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.add(name) {
		return false, nil
	}
	return true, l.save()
}

// Save overwrites the backing file with the current set.
func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save()
}

// Len returns the number of recorded names.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns the recorded names in sorted order.
func (l *Ledger) Items() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sorted()
}

func (l *Ledger) sorted() []string {
	out := make([]string, 0, len(l.items))
	for n := range l.items {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// save writes via a temp file and rename so an interrupted write leaves the
// previous ledger intact. Callers hold l.mu.
func (l *Ledger) save() error {
	data, err := fsutil.MarshalList(l.sorted())
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	if err := fsutil.WriteFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("saving ledger %s: %w", l.path, err)
	}
	return nil
}
