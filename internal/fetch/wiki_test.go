// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/concept-miner/pkg/types"
)

// fakeWiki serves /w/index.php for action=edit and action=raw from an
// in-memory page table.
type fakeWiki struct {
	mu       sync.Mutex
	pages    map[string]string
	requests []string

	delay    time.Duration
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

func newFakeWiki(t *testing.T, pages map[string]string) (*fakeWiki, *httptest.Server) {
	t.Helper()
	wiki := &fakeWiki{pages: pages}
	ts := httptest.NewServer(wiki)
	t.Cleanup(ts.Close)
	return wiki, ts
}

func (f *fakeWiki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if r.URL.Path != "/w/index.php" {
		http.NotFound(w, r)
		return
	}
	title := r.URL.Query().Get("title")
	f.mu.Lock()
	f.requests = append(f.requests, title)
	markup, ok := f.pages[title]
	f.mu.Unlock()

	switch r.URL.Query().Get("action") {
	case "edit":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if !ok {
			fmt.Fprint(w, `<html><body><p>no such page</p></body></html>`)
			return
		}
		fmt.Fprintf(w, `<html><body><form><textarea id="wpTextbox1" readonly>%s</textarea></form></body></html>`,
			html.EscapeString(markup))
	case "raw":
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, markup)
	default:
		http.Error(w, "bad action", http.StatusBadRequest)
	}
}

func (f *fakeWiki) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testFetchConfig(baseURL string, kind types.SourceKind) types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "concept-miner-test/1.0"},
		BaseURL:    baseURL,
		Source:     kind,
	}
}

func testClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}
