// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// The filename is the key and the trimmed contents are the value. Only
// wikimedia-access-token is consumed today; it is sent as a bearer token
// and lifts the anonymous rate limit on Wikimedia sites.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/concept-miner/pkg/types"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets"

// AccessTokenKey names the file holding the Wikimedia OAuth access token.
const AccessTokenKey = "wikimedia-access-token"

// Store is a set of loaded secrets keyed by filename.
type Store map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty Store. Unreadable files are logged and skipped.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// ApplyTo fills cfg.AccessToken from the store unless it is already set
// by flag, config file or environment. It reports whether a token is now
// present.
func (s Store) ApplyTo(cfg *types.HTTPConfig) bool {
	if cfg.AccessToken == "" {
		cfg.AccessToken = s[AccessTokenKey]
	}
	return cfg.AccessToken != ""
}
