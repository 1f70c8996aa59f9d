// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads the wiki markup of page titles, following
// redirect chains, and stores one text file per requested title.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/concept-miner/internal/fsutil"
	"github.com/pdiddy/concept-miner/pkg/types"
)

const (
	pageExt             = ".txt"
	defaultMaxRedirects = 10
)

var (
	// ErrEmptyTitle rejects blank titles before any request is made.
	ErrEmptyTitle = errors.New("empty title")

	// ErrRedirectCycle is returned when a redirect chain revisits a title or
	// exceeds the hop limit.
	ErrRedirectCycle = errors.New("redirect cycle")

	// ErrSectionRedirect is returned for "#REDIRECT [[#Section]]", which
	// points back into the page holding it and so has no article markup.
	ErrSectionRedirect = fmt.Errorf("section-only redirect: %w", ErrNoMarkup)
)

// FetchError wraps every per-title failure so batch callers can log the
// title and move on.
type FetchError struct {
	Title string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %q: %v", e.Title, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// redirectPattern matches a redirect marker at the very start of the
// markup: "#REDIRECT [[Target]]" in any case, or the zh alias "#重定向".
var redirectPattern = regexp.MustCompile(`(?i)^#(?:REDIRECT|重定向)\s*\[\[([^\]]+)\]\]`)

// RedirectTarget returns the page a redirect marker points to. Any
// "#Section" fragment is dropped since only the page is fetched.
func RedirectTarget(markup string) (string, bool) {
	m := redirectPattern.FindStringSubmatch(markup)
	if m == nil {
		return "", false
	}
	target := m[1]
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	return strings.TrimSpace(target), true
}

// Fetcher resolves titles through a Source and writes their markup under
// PagesDir.
type Fetcher struct {
	source       Source
	pagesDir     string
	maxRedirects int
	now          func() time.Time
}

// NewFetcher creates a Fetcher. maxRedirects <= 0 uses the default of 10.
func NewFetcher(source Source, pagesDir string, maxRedirects int) *Fetcher {
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}
	return &Fetcher{
		source:       source,
		pagesDir:     pagesDir,
		maxRedirects: maxRedirects,
		now:          time.Now,
	}
}

// PagePath returns where the markup of title is stored.
func (f *Fetcher) PagePath(title string) string {
	return filepath.Join(f.pagesDir, types.FileName(title)+pageExt)
}

// Fetch retrieves title, following redirects, and writes the terminal
// page's markup to the file named after the original title. Errors are
// returned as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, title string) (*types.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &FetchError{Title: title, Err: ErrEmptyTitle}
	}

	current := title
	visited := map[string]bool{title: true}
	var redirects []string

	for {
		markup, err := f.source.Markup(ctx, current)
		if err != nil {
			return nil, &FetchError{Title: title, Err: err}
		}

		target, isRedirect := RedirectTarget(markup)
		if !isRedirect {
			return f.store(title, current, redirects, markup)
		}

		if target == "" {
			return nil, &FetchError{Title: title, Err: fmt.Errorf("%w: %s redirects to a section of itself", ErrSectionRedirect, current)}
		}
		if visited[target] {
			return nil, &FetchError{Title: title, Err: fmt.Errorf("%w: %s -> %s", ErrRedirectCycle, current, target)}
		}
		if len(redirects) >= f.maxRedirects {
			return nil, &FetchError{Title: title, Err: fmt.Errorf("%w: more than %d redirects", ErrRedirectCycle, f.maxRedirects)}
		}
		visited[target] = true
		redirects = append(redirects, target)
		current = target
	}
}

func (f *Fetcher) store(title, final string, redirects []string, markup string) (*types.Document, error) {
	path := f.PagePath(title)
	if err := fsutil.WriteFileAtomic(path, []byte(markup)); err != nil {
		return nil, &FetchError{Title: title, Err: err}
	}
	return &types.Document{
		Title:      title,
		FinalTitle: final,
		Redirects:  redirects,
		Path:       path,
		Bytes:      len(markup),
		FetchedAt:  f.now(),
	}, nil
}
