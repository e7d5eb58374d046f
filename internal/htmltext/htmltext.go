// Package htmltext converts HTML fragments to plain text. It backs both the
// manuscript-excerpt path of prompt assembly and entry export.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags are elements that terminate a line when flattening to text.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true,
}

// ToText flattens an HTML fragment to plain text: block elements and <br>
// become newlines, tags are stripped, entities are decoded by the parser.
// Malformed input is handled leniently; html.Parse never fails on fragments.
func ToText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		// The tolerant parser only errors on reader failure; a string
		// reader cannot fail, but fall back to the raw input regardless.
		return fragment
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	return collapseBlankLines(b.String())
}

// StripTags removes markup and returns the running text with whitespace
// normalized, for contexts where line structure does not matter.
func StripTags(fragment string) string {
	return strings.Join(strings.Fields(ToText(fragment)), " ")
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
