// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/concept-miner/internal/httputil"
	"github.com/pdiddy/concept-miner/pkg/types"
)

// ErrNoMarkup means the page answered but carried no wiki markup, e.g. the
// edit form had no wpTextbox1 textarea or the raw endpoint returned 404.
var ErrNoMarkup = errors.New("no wiki markup on page")

// editTextareaID is the id MediaWiki gives the edit form's text box.
const editTextareaID = "wpTextbox1"

// maxPageBytes bounds how much of one response is read.
const maxPageBytes = 32 << 20

// Source retrieves the raw wiki markup of one title. EditPageSource and
// RawSource are the two strategies.
type Source interface {
	Name() string
	Markup(ctx context.Context, title string) (string, error)
}

// NewSource returns the backend selected by cfg.Source. An empty kind
// selects the edit-page scraper.
func NewSource(client *http.Client, cfg types.FetchConfig) (Source, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("fetch base URL is empty")
	}
	switch cfg.Source {
	case "", types.SourceEditPage:
		return &EditPageSource{client: client, baseURL: base, httpCfg: cfg.HTTPConfig}, nil
	case types.SourceRaw:
		return &RawSource{client: client, baseURL: base, httpCfg: cfg.HTTPConfig}, nil
	default:
		return nil, fmt.Errorf("unknown markup source %q (want %q or %q)", cfg.Source, types.SourceEditPage, types.SourceRaw)
	}
}

// indexURL builds <base>/w/index.php?title=<title>&action=<action>.
func indexURL(base, title, action string) string {
	q := url.Values{}
	q.Set("title", title)
	q.Set("action", action)
	return base + "/w/index.php?" + q.Encode()
}

// EditPageSource reads markup from the textarea of the page's edit form,
// which is served to anonymous users for unprotected and protected pages
// alike (protected pages show it read-only).
type EditPageSource struct {
	client  *http.Client
	baseURL string
	httpCfg types.HTTPConfig
}

// Name implements Source.
func (s *EditPageSource) Name() string { return string(types.SourceEditPage) }

// Markup implements Source.
func (s *EditPageSource) Markup(ctx context.Context, title string) (string, error) {
	body, err := get(ctx, s.client, indexURL(s.baseURL, title, "edit"), s.httpCfg)
	if err != nil {
		return "", err
	}
	defer body.Close()

	text, found, err := textareaText(body, editTextareaID)
	if err != nil {
		return "", fmt.Errorf("parsing edit page: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w: textarea #%s missing", ErrNoMarkup, editTextareaID)
	}
	return text, nil
}

// textareaText parses an HTML document and returns the text of the
// textarea with the given id. Character references are already decoded by
// the tokenizer.
func textareaText(r io.Reader, id string) (string, bool, error) {
	doc, err := html.Parse(io.LimitReader(r, maxPageBytes))
	if err != nil {
		return "", false, err
	}
	node := findByID(doc, "textarea", id)
	if node == nil {
		return "", false, nil
	}
	var sb strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String(), true, nil
}

func findByID(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}

// RawSource reads markup from action=raw, which needs no HTML parsing.
type RawSource struct {
	client  *http.Client
	baseURL string
	httpCfg types.HTTPConfig
}

// Name implements Source.
func (s *RawSource) Name() string { return string(types.SourceRaw) }

// Markup implements Source.
func (s *RawSource) Markup(ctx context.Context, title string) (string, error) {
	body, err := get(ctx, s.client, indexURL(s.baseURL, title, "raw"), s.httpCfg)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading raw markup: %w", err)
	}
	return string(data), nil
}

// get performs a GET with rate-limit backoff and returns the body of a 200
// response. A 404 maps to ErrNoMarkup.
func get(ctx context.Context, client *http.Client, rawURL string, cfg types.HTTPConfig) (io.ReadCloser, error) {
	req, err := httputil.NewRequest(ctx, rawURL, cfg)
	if err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP 404 from %s", ErrNoMarkup, rawURL)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
}
