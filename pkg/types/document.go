// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Document is the stored markup of one requested title. The file is always
// named after Title even when the content came from a redirect target.
type Document struct {
	// Title is the title originally requested.
	Title string `json:"title" yaml:"title"`

	// FinalTitle is the terminal page after following redirects.
	FinalTitle string `json:"final_title" yaml:"final_title"`

	// Redirects lists the intermediate titles visited, in order.
	Redirects []string `json:"redirects,omitempty" yaml:"redirects,omitempty"`

	// Path is the local file holding the markup.
	Path string `json:"path" yaml:"path"`

	// Bytes is the size of the stored markup.
	Bytes int `json:"bytes" yaml:"bytes"`

	// FetchedAt records when the file was written.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Redirected reports whether the content came from a different page.
func (d *Document) Redirected() bool {
	return len(d.Redirects) > 0
}

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_")

// FileName returns the base file name (without extension) used for a title.
// Path separators are replaced so every title maps to a single file.
func FileName(title string) string {
	return fileNameReplacer.Replace(strings.TrimSpace(title))
}

// ConceptHit is a concept together with the page files it was found in.
type ConceptHit struct {
	Text  string   `json:"text" yaml:"text"`
	Files []string `json:"files" yaml:"files"`
}

// StoreStats summarizes the concept store contents.
type StoreStats struct {
	Files          int       `json:"files" yaml:"files"`
	Concepts       int       `json:"concepts" yaml:"concepts"`
	UniqueConcepts int       `json:"unique_concepts" yaml:"unique_concepts"`
	LastExtracted  time.Time `json:"last_extracted,omitempty" yaml:"last_extracted,omitempty"`
}
