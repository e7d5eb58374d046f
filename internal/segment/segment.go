// Package segment splits long manuscripts into bounded chunks aligned to
// chapter headings and paragraph breaks, ready for per-chunk extraction.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxLen bounds chunk content length in runes.
	DefaultMaxLen = 3000
	// minChunkRunes discards fragments too short to extract anything from.
	minChunkRunes = 50
)

// Chunk is one bounded slice of manuscript text. Chapter carries the most
// recently seen heading line, empty before the first heading.
type Chunk struct {
	Content string `json:"content"`
	Chapter string `json:"chapter,omitempty"`
}

// headingRe recognizes a CJK ordinal chapter marker or a Latin "Chapter N"
// marker at the start of a line, capturing the rest of that line as the
// label. Matching is span-based per call; no state survives between calls.
var headingRe = regexp.MustCompile(`(?m)^[ \t　]*(?:第[0-9０-９一二三四五六七八九十百千万零两〇]+章[^\n]*|Chapter[ \t]+[0-9]+[^\n]*)`)

var blankLineRe = regexp.MustCompile(`\n[ \t\r　]*\n`)

// Segment splits text into chunks of at most maxLen runes. A heading line
// updates the current chapter label and is never emitted as content. An
// oversized paragraph is emitted whole: content is never cut mid-paragraph.
func Segment(text string, maxLen int) []Chunk {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	var chunks []Chunk
	chapter := ""

	spans := headingRe.FindAllStringIndex(text, -1)
	pos := 0
	for _, span := range spans {
		emitSegment(text[pos:span[0]], chapter, maxLen, &chunks)
		chapter = strings.TrimSpace(text[span[0]:span[1]])
		pos = span[1]
	}
	emitSegment(text[pos:], chapter, maxLen, &chunks)

	return chunks
}

func emitSegment(seg, chapter string, maxLen int, chunks *[]Chunk) {
	seg = strings.TrimSpace(seg)
	n := utf8.RuneCountInString(seg)
	if n < minChunkRunes {
		return
	}
	if n <= maxLen {
		*chunks = append(*chunks, Chunk{Content: seg, Chapter: chapter})
		return
	}

	// Greedy paragraph accumulation: flush before a paragraph that would
	// push the buffer past maxLen.
	var buf []string
	bufLen := 0
	flush := func() {
		if bufLen == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(buf, "\n\n"))
		if utf8.RuneCountInString(content) >= minChunkRunes {
			*chunks = append(*chunks, Chunk{Content: content, Chapter: chapter})
		}
		buf = buf[:0]
		bufLen = 0
	}

	for _, para := range splitParagraphs(seg) {
		paraLen := utf8.RuneCountInString(para)

		if paraLen > maxLen {
			flush()
			*chunks = append(*chunks, Chunk{Content: para, Chapter: chapter})
			continue
		}

		joined := paraLen
		if bufLen > 0 {
			joined += bufLen + 2
		}
		if joined > maxLen && bufLen > 0 {
			flush()
			joined = paraLen
		}
		buf = append(buf, para)
		bufLen = joined
	}
	flush()
}

func splitParagraphs(seg string) []string {
	parts := blankLineRe.Split(seg, -1)
	paras := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}
