// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/concept-miner/internal/ledger"
	"github.com/pdiddy/concept-miner/pkg/types"
)

// --- fake sink ---

type memorySink struct {
	files map[string][]string
	fail  map[string]bool
	calls int
}

func newMemorySink() *memorySink {
	return &memorySink{files: map[string][]string{}, fail: map[string]bool{}}
}

func (m *memorySink) ReplaceFile(_ context.Context, name string, concepts []string) error {
	m.calls++
	if m.fail[name] {
		return errors.New("store unavailable")
	}
	m.files[name] = append([]string(nil), concepts...)
	return nil
}

func (m *memorySink) Has(_ context.Context, name string) (bool, error) {
	_, ok := m.files[name]
	return ok, nil
}

func writePage(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) (types.ExtractionConfig, *ledger.Ledger) {
	t.Helper()
	dir := t.TempDir()
	pages := filepath.Join(dir, "pages")
	if err := os.MkdirAll(pages, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := types.ExtractionConfig{
		PagesDir:   pages,
		LedgerPath: filepath.Join(dir, "processed_files_log.json"),
	}
	return cfg, ledger.Open(cfg.LedgerPath)
}

// --- Extract ---

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"piped link kept whole", "see [[Foo]] and [[Bar|Baz]]", []string{"Foo", "Bar|Baz"}},
		{"whitespace trimmed", "[[  熵  ]]", []string{"熵"}},
		{"empty dropped", "[[]] [[   ]] [[x]]", []string{"x"}},
		{"non-greedy", "[[a]] text ]] [[b]]", []string{"a", "b"}},
		{"duplicates kept in order", "[[b]][[a]][[b]]", []string{"b", "a", "b"}},
		{"no newline crossing", "[[a\nb]] [[c]]", []string{"c"}},
		{"nested opener", "[[[[x]]", []string{"[[x"}},
		{"no links", "plain text", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractTargets(t *testing.T) {
	got := ExtractTargets("see [[Foo]] and [[Bar|Baz]] [[ Qux | label ]] [[|orphan]]")
	assert.Equal(t, []string{"Foo", "Bar", "Qux"}, got)
}

func TestForMode(t *testing.T) {
	text := "[[Bar|Baz]]"
	assert.Equal(t, []string{"Bar|Baz"}, ForMode(types.PipeWhole)(text))
	assert.Equal(t, []string{"Bar|Baz"}, ForMode("")(text))
	assert.Equal(t, []string{"Bar"}, ForMode(types.PipeTarget)(text))
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "a.txt", "[[Entropy]]")

	got, err := ExtractFile(filepath.Join(dir, "a.txt"), types.PipeWhole)
	require.NoError(t, err)
	assert.Equal(t, []string{"Entropy"}, got)

	_, err = ExtractFile(filepath.Join(dir, "missing.txt"), types.PipeWhole)
	assert.Error(t, err)
}

// --- ListPages ---

func TestListPages_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "b.txt", "")
	writePage(t, dir, "A.TXT", "")
	writePage(t, dir, "c.md", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.txt"), 0o755))

	names, err := ListPages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.TXT", "b.txt"}, names)
}

func TestListPages_MissingDir(t *testing.T) {
	_, err := ListPages(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrMissingInput)
}

// --- ExtractAll ---

func TestExtractAll(t *testing.T) {
	cfg, l := testConfig(t)
	writePage(t, cfg.PagesDir, "Energy.txt", "[[Work]] and [[Heat|heat]]")
	writePage(t, cfg.PagesDir, "Empty.txt", "no links here")
	sink := newMemorySink()

	var buf strings.Builder
	summary, err := ExtractAll(context.Background(), cfg, l, sink, &buf)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 2, summary.Concepts)
	// Files are processed in sorted order.
	assert.Equal(t, []string{"Work", "Heat|heat"}, summary.Extracted)
	assert.Equal(t, []string{"Work", "Heat|heat"}, sink.files["Energy.txt"])
	assert.Empty(t, sink.files["Empty.txt"])

	// A file with no concepts is still recorded.
	reloaded := ledger.Open(cfg.LedgerPath)
	assert.True(t, reloaded.Contains("Energy.txt"))
	assert.True(t, reloaded.Contains("Empty.txt"))
	assert.Contains(t, buf.String(), "Extraction summary: 2 processed")
}

func TestExtractAll_SecondRunIsIdempotent(t *testing.T) {
	cfg, l := testConfig(t)
	writePage(t, cfg.PagesDir, "a.txt", "[[x]]")
	writePage(t, cfg.PagesDir, "b.txt", "[[y]]")

	sink := newMemorySink()
	_, err := ExtractAll(context.Background(), cfg, l, sink, &strings.Builder{})
	require.NoError(t, err)
	require.Equal(t, 2, sink.calls)

	second, err := ExtractAll(context.Background(), cfg, ledger.Open(cfg.LedgerPath), sink, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 2, sink.calls)
}

func TestExtractAll_LedgerEntryMissingFromSinkIsReextracted(t *testing.T) {
	cfg, l := testConfig(t)
	writePage(t, cfg.PagesDir, "a.txt", "[[熵]]")
	writePage(t, cfg.PagesDir, "b.txt", "[[功]]")
	l.Add("a.txt")
	l.Add("b.txt")

	sink := newMemorySink()
	sink.files["b.txt"] = []string{"功"}

	summary, err := ExtractAll(context.Background(), cfg, l, sink, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"熵"}, sink.files["a.txt"])
}

type brokenSink struct{ *memorySink }

func (brokenSink) Has(context.Context, string) (bool, error) {
	return false, errors.New("database locked")
}

func TestExtractAll_SinkLookupErrorReextracts(t *testing.T) {
	cfg, l := testConfig(t)
	writePage(t, cfg.PagesDir, "a.txt", "[[x]]")
	l.Add("a.txt")

	sink := brokenSink{newMemorySink()}
	summary, err := ExtractAll(context.Background(), cfg, l, sink, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, []string{"x"}, sink.files["a.txt"])
}

func TestExtractAll_FullIgnoresLedger(t *testing.T) {
	cfg, l := testConfig(t)
	writePage(t, cfg.PagesDir, "a.txt", "[[x]]")
	l.Add("a.txt")

	cfg.Full = true
	summary, err := ExtractAll(context.Background(), cfg, l, nil, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, []string{"x"}, summary.Extracted)
}

func TestExtractAll_SavesEveryTenFiles(t *testing.T) {
	cfg, l := testConfig(t)
	for i := 0; i < 25; i++ {
		writePage(t, cfg.PagesDir, fmt.Sprintf("p%02d.txt", i), "[[c]]")
	}

	var buf strings.Builder
	summary, err := ExtractAll(context.Background(), cfg, l, nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, 25, summary.Processed)
	assert.Equal(t, 2, strings.Count(buf.String(), "saving progress"))
	assert.Equal(t, 25, ledger.Open(cfg.LedgerPath).Len())
}

func TestExtractAll_CancelledRunKeepsSavedProgress(t *testing.T) {
	cfg, l := testConfig(t)
	cfg.SaveEvery = 2
	for i := 0; i < 5; i++ {
		writePage(t, cfg.PagesDir, fmt.Sprintf("p%d.txt", i), "[[c]]")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sink := &cancellingSink{memorySink: newMemorySink(), after: 3, cancel: cancel}

	summary, err := ExtractAll(ctx, cfg, l, sink, &strings.Builder{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, ledger.Open(cfg.LedgerPath).Len())
}

type cancellingSink struct {
	*memorySink
	after  int
	cancel context.CancelFunc
}

func (c *cancellingSink) ReplaceFile(ctx context.Context, name string, concepts []string) error {
	err := c.memorySink.ReplaceFile(ctx, name, concepts)
	if c.calls == c.after {
		c.cancel()
	}
	return err
}

func TestExtractAll_SinkFailureNotRecorded(t *testing.T) {
	cfg, l := testConfig(t)
	writePage(t, cfg.PagesDir, "bad.txt", "[[x]]")
	writePage(t, cfg.PagesDir, "good.txt", "[[y]]")
	sink := newMemorySink()
	sink.fail["bad.txt"] = true

	summary, err := ExtractAll(context.Background(), cfg, l, sink, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Processed)
	assert.True(t, summary.HasFailures())
	assert.False(t, l.Contains("bad.txt"))
	assert.True(t, l.Contains("good.txt"))
}

func TestExtractAll_TargetMode(t *testing.T) {
	cfg, l := testConfig(t)
	cfg.PipeMode = types.PipeTarget
	writePage(t, cfg.PagesDir, "a.txt", "[[Bar|Baz]]")

	summary, err := ExtractAll(context.Background(), cfg, l, nil, &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bar"}, summary.Extracted)
}

func TestExtractAll_MissingPagesDir(t *testing.T) {
	cfg, l := testConfig(t)
	cfg.PagesDir = filepath.Join(cfg.PagesDir, "missing")

	_, err := ExtractAll(context.Background(), cfg, l, nil, &strings.Builder{})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestSummary(t *testing.T) {
	s := Summary{Processed: 2, Skipped: 3, Failed: 1}
	assert.Equal(t, 6, s.Total())
	assert.True(t, s.HasFailures())
	assert.False(t, Summary{Processed: 1}.HasFailures())
}
