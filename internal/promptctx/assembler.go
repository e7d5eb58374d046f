// Package promptctx renders matched knowledge entries into a bounded system
// prompt fragment.
package promptctx

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/lorebase/internal/htmltext"
	"github.com/dgallion1/lorebase/internal/knowledge"
)

const (
	// DefaultMaxTotalChars caps the budgeted portion of the fragment.
	DefaultMaxTotalChars = 50000

	// The first fullDetailCount entries get full detail blocks; entries up
	// to summaryCount get one-line summaries; the rest are only counted.
	fullDetailCount = 10
	summaryCount    = 30

	summaryMaxRunes = 200
	// Summaries are skipped entirely unless this much headroom remains
	// after the full-detail phase.
	summaryHeadroom = 2000

	excerptMaxRunes = 3000
)

// Assembler builds prompt fragments from matched entries. Zero value is not
// usable; use NewAssembler.
type Assembler struct {
	maxTotalChars int
}

func NewAssembler(maxTotalChars int) *Assembler {
	if maxTotalChars <= 0 {
		maxTotalChars = DefaultMaxTotalChars
	}
	return &Assembler{maxTotalChars: maxTotalChars}
}

// Assemble renders matched entries in their given order (insertion order of
// the underlying collection, deliberately not relevance-ranked). excerptHTML,
// when non-empty, is stripped of markup and appended outside the budget.
func (a *Assembler) Assemble(matched []knowledge.Entry, excerptHTML string) string {
	var b strings.Builder
	total := 0

	write := func(s string) {
		b.WriteString(s)
		total += utf8.RuneCountInString(s)
	}

	// The index is always present; it is small relative to the budget but
	// still counts toward the running total.
	write(renderIndex(matched))

	// Full-detail tier.
	n := len(matched)
	for i := 0; i < n && i < fullDetailCount; i++ {
		block := renderFullBlock(matched[i])
		if total+utf8.RuneCountInString(block) >= a.maxTotalChars {
			break
		}
		write(block)
	}

	// Summary tier, only when meaningful headroom remains.
	if a.maxTotalChars-total > summaryHeadroom {
		for i := fullDetailCount; i < n && i < summaryCount; i++ {
			line := renderSummaryLine(matched[i])
			if total+utf8.RuneCountInString(line) >= a.maxTotalChars {
				break
			}
			write(line)
		}
	}

	// The omitted-count trailer is independent of budget exhaustion.
	if n > summaryCount {
		b.WriteString(fmt.Sprintf("（另有 %d 条相关知识条目未展示）\n", n-summaryCount))
	}

	if excerptHTML != "" {
		b.WriteString("\n【当前文档节选】\n")
		b.WriteString(truncateRunes(htmltext.ToText(excerptHTML), excerptMaxRunes))
		b.WriteString("\n")
	}

	return b.String()
}

// renderIndex emits one index line per category present, in schema order,
// listing entry titles.
func renderIndex(entries []knowledge.Entry) string {
	byCategory := make(map[knowledge.Category][]string)
	var order []knowledge.Category
	for _, e := range entries {
		if _, seen := byCategory[e.Category]; !seen {
			order = append(order, e.Category)
		}
		byCategory[e.Category] = append(byCategory[e.Category], e.Title)
	}

	var b strings.Builder
	for _, c := range order {
		b.WriteString("【知识库索引】")
		b.WriteString(c.Label())
		b.WriteString("：")
		b.WriteString(strings.Join(byCategory[c], "、"))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFullBlock(e knowledge.Entry) string {
	var b strings.Builder
	b.WriteString("\n【")
	b.WriteString(e.Category.Label())
	b.WriteString("】")
	b.WriteString(e.Title)
	b.WriteString("：\n")
	b.WriteString(e.RenderDetails())
	return b.String()
}

func renderSummaryLine(e knowledge.Entry) string {
	summary := strings.Join(strings.Fields(e.RenderDetails()), " ")
	summary = truncateRunes(summary, summaryMaxRunes)
	return fmt.Sprintf("• %s - %s: %s\n", e.Category.Label(), e.Title, summary)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
