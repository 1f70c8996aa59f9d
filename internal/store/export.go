// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/concept-miner/internal/fsutil"
	"github.com/pdiddy/concept-miner/pkg/types"
)

const exportLimit = 1000000

// Export is the on-disk form of a store dump: summary counts plus every
// distinct concept with the page files that mention it.
type Export struct {
	Stats    types.StoreStats   `json:"stats" yaml:"stats"`
	Concepts []types.ConceptHit `json:"concepts" yaml:"concepts"`
}

// ExportFile writes the store contents to path. A .json extension selects
// JSON; anything else is written as YAML.
func (s *Store) ExportFile(ctx context.Context, path string) error {
	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	hits, err := s.Lookup(ctx, "", exportLimit)
	if err != nil {
		return err
	}
	out := Export{Stats: stats, Concepts: hits}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = yaml.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing export %s: %w", path, err)
	}
	return nil
}
