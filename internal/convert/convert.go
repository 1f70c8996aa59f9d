// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns rendered wiki articles into Markdown files with
// pluggable backends.
package convert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/concept-miner/internal/fsutil"
	"github.com/pdiddy/concept-miner/internal/httputil"
	"github.com/pdiddy/concept-miner/pkg/types"
)

const (
	mdExt        = ".md"
	maxHTMLBytes = 32 << 20
	defaultDelay = time.Second
)

// Converter transforms article HTML into Markdown text.
type Converter interface {
	Convert(html []byte) (string, error)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of titles processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any title failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Status is the per-title outcome of ConvertTitle.
type Status int

const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

// MarkdownPath returns where the Markdown for title is written.
func MarkdownPath(dir, title string) string {
	return filepath.Join(dir, types.FileName(title)+mdExt)
}

// renderURL builds <base>/w/index.php?title=<title>&action=render, which
// returns the article body without the site chrome.
func renderURL(base, title string) string {
	q := url.Values{}
	q.Set("title", title)
	q.Set("action", "render")
	return strings.TrimRight(base, "/") + "/w/index.php?" + q.Encode()
}

// ConvertTitle fetches the rendered article for title and writes it as
// Markdown. An existing Markdown file is left untouched.
func ConvertTitle(ctx context.Context, client *http.Client, c Converter, title string, cfg types.ConversionConfig, w io.Writer) Status {
	mdPath := MarkdownPath(cfg.MarkdownDir, title)
	if _, err := os.Stat(mdPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", title)
		return StatusSkipped
	}

	src := renderURL(cfg.BaseURL, title)
	body, err := fetchHTML(ctx, client, src, cfg.HTTPConfig)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
		return StatusFailed
	}

	markdown, err := c.Convert(body)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
		return StatusFailed
	}

	content := addFrontmatter(title, src, markdown)
	if err := fsutil.WriteFileAtomic(mdPath, []byte(content)); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
		return StatusFailed
	}

	fmt.Fprintf(w, "converted: %s\n", title)
	return StatusConverted
}

// ConvertBatch converts titles one at a time, pausing cfg.Delay between
// requests, printing per-title status to w and returning a summary.
func ConvertBatch(ctx context.Context, client *http.Client, c Converter, titles []string, cfg types.ConversionConfig, w io.Writer) BatchResult {
	delay := cfg.Delay
	if delay <= 0 {
		delay = defaultDelay
	}

	var result BatchResult
	requested := false
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if ctx.Err() != nil {
			result.Failed++
			continue
		}
		if requested {
			select {
			case <-ctx.Done():
				result.Failed++
				continue
			case <-time.After(delay):
			}
		}

		switch ConvertTitle(ctx, client, c, title, cfg, w) {
		case StatusConverted:
			result.Converted++
			requested = true
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
			requested = true
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

func fetchHTML(ctx context.Context, client *http.Client, rawURL string, cfg types.HTTPConfig) ([]byte, error) {
	req, err := httputil.NewRequest(ctx, rawURL, cfg)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown.
func addFrontmatter(title, source, body string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", title)
	fmt.Fprintf(&b, "source_url: %q\n", source)
	fmt.Fprintf(&b, "converted_at: %q\n", ts)
	b.WriteString("---\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
