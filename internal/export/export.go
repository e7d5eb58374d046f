// Package export renders knowledge entries into downloadable documents.
package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/dgallion1/lorebase/internal/htmltext"
	"github.com/dgallion1/lorebase/internal/knowledge"
)

var (
	illegalFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a title safe to use as a download filename. Illegal
// characters become underscores, whitespace runs collapse to one space, and
// trailing dots and spaces are trimmed. An empty result falls back to a
// placeholder name.
func SanitizeFilename(name string) string {
	name = illegalFilenameChars.ReplaceAllString(name, "_")
	name = whitespaceRun.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ". ")
	if name == "" {
		name = "未命名"
	}
	return name
}

// EntryHTML renders an entry as a standalone HTML body fragment: title
// heading, category and keyword lines, then the detail fields in schema order.
func EntryHTML(e knowledge.Entry) string {
	var b strings.Builder
	b.WriteString("<h1>")
	b.WriteString(html.EscapeString(e.Title))
	b.WriteString("</h1>\n")
	b.WriteString("<p>类别：")
	b.WriteString(html.EscapeString(e.Category.Label()))
	b.WriteString("</p>\n")
	if len(e.Keywords) > 0 {
		b.WriteString("<p>关键词：")
		b.WriteString(html.EscapeString(strings.Join(e.Keywords, "、")))
		b.WriteString("</p>\n")
	}
	for _, line := range strings.Split(strings.TrimRight(e.RenderDetails(), "\n"), "\n") {
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>\n")
	}
	return b.String()
}

// RenderText converts an HTML fragment to the plain-text .txt payload.
func RenderText(htmlBody string) string {
	return htmltext.ToText(htmlBody)
}

// RenderDoc wraps an HTML fragment in the Word-compatible HTML container that
// legacy .doc consumers accept.
func RenderDoc(title, htmlBody string) string {
	return fmt.Sprintf(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s</body>
</html>
`, html.EscapeString(title), htmlBody)
}
