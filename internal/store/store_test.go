// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/concept-miner/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(types.StoreConfig{IndexDir: filepath.Join(dir, "index")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func TestOpen_CreatesDatabase(t *testing.T) {
	_, dir := testStore(t)
	_, err := os.Stat(filepath.Join(dir, "index", dbFile))
	assert.NoError(t, err)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	cfg := types.StoreConfig{IndexDir: dir}
	ctx := context.Background()

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceFile(ctx, "a.txt", []string{"x"}))
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.AllConcepts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestReplaceFile_ReplacesPreviousRows(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "a.txt", []string{"old", "stale"}))
	require.NoError(t, s.ReplaceFile(ctx, "a.txt", []string{"new"}))

	got, err := s.AllConcepts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, got)
}

func TestReplaceFile_EmptyRecordsFile(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "empty.txt", nil))

	files, err := s.Files(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty.txt"}, files)

	got, err := s.AllConcepts(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHas(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	ok, err := s.Has(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ReplaceFile(ctx, "a.txt", nil))
	ok, err = s.Has(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok, "a file with no concepts still counts as stored")
}

func TestAllConcepts_OrderedByFileThenPosition(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "b.txt", []string{"b1", "b2"}))
	require.NoError(t, s.ReplaceFile(ctx, "a.txt", []string{"a1", "shared"}))
	require.NoError(t, s.ReplaceFile(ctx, "c.txt", []string{"shared"}))

	got, err := s.AllConcepts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "shared", "b1", "b2", "shared"}, got)
}

func TestLookup(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFile(ctx, "热力学.txt", []string{"熵", "热力学第二定律", "熵"}))
	require.NoError(t, s.ReplaceFile(ctx, "信息论.txt", []string{"熵", "信道容量"}))
	require.NoError(t, s.ReplaceFile(ctx, "x,y.txt", []string{"熵"}))

	hits, err := s.Lookup(ctx, "熵", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "熵", hits[0].Text)
	assert.Equal(t, []string{"x,y.txt", "信息论.txt", "热力学.txt"}, hits[0].Files)

	hits, err = s.Lookup(ctx, "定律", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, []string{"热力学.txt"}, hits[0].Files)

	hits, err = s.Lookup(ctx, "不存在", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLookup_Limit(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFile(ctx, "a.txt", []string{"c", "a", "b"}))

	hits, err := s.Lookup(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Text)
	assert.Equal(t, "b", hits[1].Text)
}

func TestStats(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StoreStats{}, st)

	require.NoError(t, s.ReplaceFile(ctx, "a.txt", []string{"x", "y"}))
	require.NoError(t, s.ReplaceFile(ctx, "b.txt", []string{"x"}))

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Files)
	assert.Equal(t, 3, st.Concepts)
	assert.Equal(t, 2, st.UniqueConcepts)
	assert.True(t, fixed.Equal(st.LastExtracted))
}

func TestExportFile(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFile(ctx, "a.txt", []string{"x", "y"}))
	require.NoError(t, s.ReplaceFile(ctx, "b.txt", []string{"x"}))

	yamlPath := filepath.Join(dir, "out", "export.yaml")
	require.NoError(t, s.ExportFile(ctx, yamlPath))
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML Export
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, 2, fromYAML.Stats.Files)
	require.Len(t, fromYAML.Concepts, 2)
	assert.Equal(t, []string{"a.txt", "b.txt"}, fromYAML.Concepts[0].Files)

	jsonPath := filepath.Join(dir, "out", "export.json")
	require.NoError(t, s.ExportFile(ctx, jsonPath))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON Export
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, fromYAML.Concepts, fromJSON.Concepts)
}
