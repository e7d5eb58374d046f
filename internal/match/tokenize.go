package match

import (
	"strings"
	"unicode/utf8"
)

// cjkPunct is the punctuation replaced by spaces before tokenizing. Chinese
// prose rarely contains ASCII whitespace, so these act as word separators.
const cjkPunct = "，。？！、“”‘’：；（）【】"

var punctReplacer = func() *strings.Replacer {
	var pairs []string
	for _, r := range cjkPunct {
		pairs = append(pairs, string(r), " ")
	}
	return strings.NewReplacer(pairs...)
}()

// Tokenize lowercases text, replaces CJK punctuation with spaces, and splits
// on whitespace runs. Tokens shorter than 2 runes are discarded: single
// characters match far too promiscuously in Chinese text.
func Tokenize(text string) []string {
	text = punctReplacer.Replace(strings.ToLower(text))
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
