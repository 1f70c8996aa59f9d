// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "concept-miner/0.1"). Wikimedia rejects requests without one.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// AccessToken is an optional Wikimedia OAuth token sent as a bearer
	// credential for higher rate limits.
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`

	// MaxRetries bounds the HTTP 429 backoff attempts (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SourceKind selects how raw wiki markup is retrieved.
type SourceKind string

const (
	// SourceEditPage scrapes the wpTextbox1 textarea of the edit form.
	SourceEditPage SourceKind = "edit"
	// SourceRaw uses action=raw, which returns markup as text/x-wiki.
	SourceRaw SourceKind = "raw"
)

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the wiki root, e.g. "https://zh.wikipedia.org".
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Source selects the markup backend: edit or raw.
	Source SourceKind `json:"source" yaml:"source"`

	// PagesDir receives one .txt file per requested title.
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`

	// DonePath is the completed-titles ledger (JSON array).
	DonePath string `json:"done_path" yaml:"done_path"`

	// Workers is the fetch pool size (default 8).
	Workers int `json:"workers" yaml:"workers"`

	// MaxRedirects caps how many redirect hops one title may follow (default 10).
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects"`
}

// PipeMode decides what part of a piped wikilink is kept.
type PipeMode string

const (
	// PipeWhole keeps the full bracket contents, "Target|Label" included.
	PipeWhole PipeMode = "whole"
	// PipeTarget keeps only the text before the first pipe.
	PipeTarget PipeMode = "target"
)

// ExtractionConfig holds settings for the extract stage.
type ExtractionConfig struct {
	// PagesDir is the directory of fetched .txt pages.
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`

	// LedgerPath is the processed-files ledger (JSON array).
	LedgerPath string `json:"ledger_path" yaml:"ledger_path"`

	// OutputPath receives the sorted, deduplicated concept list.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// PipeMode selects whole or target extraction (default whole).
	PipeMode PipeMode `json:"pipe_mode" yaml:"pipe_mode"`

	// SaveEvery is how many newly processed files trigger a ledger save (default 10).
	SaveEvery int `json:"save_every" yaml:"save_every"`

	// Full ignores the ledger and re-extracts every page.
	Full bool `json:"full" yaml:"full"`
}

// FilterConfig holds the exclusion keyword settings.
type FilterConfig struct {
	// KeywordsFile optionally replaces the built-in keyword lists.
	KeywordsFile string `json:"keywords_file,omitempty" yaml:"keywords_file,omitempty"`
}

// ConversionConfig holds settings for the Markdown conversion stage.
type ConversionConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the wiki root used to request rendered article HTML.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MarkdownDir receives one .md file per title.
	MarkdownDir string `json:"markdown_dir" yaml:"markdown_dir"`

	// Delay is the pause between consecutive page requests (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// StoreConfig holds settings for the concept store.
type StoreConfig struct {
	// IndexDir holds concepts.db.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default lookup limit (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Filter     FilterConfig     `json:"filter" yaml:"filter"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
