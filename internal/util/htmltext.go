// Package util holds small shared helpers with no domain knowledge.
package util

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// tagRe gates the HTML parser: bare angle brackets in prose ("speed < 60")
// must not route plain text through it.
var tagRe = regexp.MustCompile(`</?[A-Za-z][^>]*>`)

// StripHTML extracts visible text from HTML or hOCR document exports.
// OCR services commonly deliver recognized text as HTML; the section
// splitter wants the plain text. Non-HTML input passes through unchanged.
func StripHTML(s string) string {
	if !tagRe.MatchString(s) {
		return s
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "br", "p", "div", "tr", "li", "h1", "h2", "h3", "h4":
				buf.WriteString("\n")
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// Collapse runs of blank lines left by block elements.
	lines := strings.Split(buf.String(), "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
