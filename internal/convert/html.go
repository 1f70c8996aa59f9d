// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var excessiveLines = regexp.MustCompile(`\n{3,}`)

// noiseClasses are MediaWiki render classes that carry no article text.
var noiseClasses = []string{
	"mw-editsection", "reference", "references", "reflist", "navbox",
	"toc", "metadata", "noprint", "mw-empty-elt", "hatnote",
}

var noiseTags = []string{"script", "style", "noscript"}

// HTMLConverter converts rendered MediaWiki HTML with html-to-markdown and
// its GitHub-flavored plugin, so wiki tables survive as pipe tables.
type HTMLConverter struct {
	converter *md.Converter
}

// NewHTMLConverter creates an HTMLConverter.
func NewHTMLConverter() *HTMLConverter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &HTMLConverter{converter: converter}
}

// Convert implements Converter.
func (c *HTMLConverter) Convert(content []byte) (string, error) {
	cleaned, err := stripNoise(content)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	markdown, err := c.converter.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return tidy(markdown), nil
}

// stripNoise drops edit links, footnote markers and navigation boxes.
func stripNoise(content []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	tags := make(map[string]bool, len(noiseTags))
	for _, t := range noiseTags {
		tags[t] = true
	}
	classes := make(map[string]bool, len(noiseClasses))
	for _, c := range noiseClasses {
		classes[c] = true
	}

	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (tags[n.Data] || hasClass(n, classes) || isTOC(n)) {
			doomed = append(doomed, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func hasClass(n *html.Node, classes map[string]bool) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if classes[c] {
				return true
			}
		}
	}
	return false
}

func isTOC(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val == "toc" {
			return true
		}
	}
	return false
}

func tidy(markdown string) string {
	lines := strings.Split(markdown, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := excessiveLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}
