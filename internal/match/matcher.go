// Package match decides which knowledge entries pertain to a query text.
//
// This is a cheap, explainable heuristic, not semantic search: it misses
// paraphrases and can fire on common tokens (mitigated by the 2-rune token
// minimum and the two-hit co-occurrence threshold).
package match

import (
	"context"
	"strings"

	"github.com/dgallion1/lorebase/internal/knowledge"
)

// minCooccurrence is how many distinct query tokens must hit the entry's
// title, keywords, or details before a co-occurrence match counts. A single
// weak token hit is too noisy.
const minCooccurrence = 2

// Matches reports whether entry is relevant to query. Stages short-circuit
// in order: title containment, keyword containment, token co-occurrence.
func Matches(entry knowledge.Entry, query string) bool {
	q := strings.ToLower(query)

	if title := strings.ToLower(entry.Title); title != "" && strings.Contains(q, title) {
		return true
	}

	for _, kw := range entry.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(q, kw) {
			return true
		}
	}

	title := strings.ToLower(entry.Title)
	detail := strings.ToLower(entry.DetailText())
	lowerKeywords := make([]string, 0, len(entry.Keywords))
	for _, kw := range entry.Keywords {
		lowerKeywords = append(lowerKeywords, strings.ToLower(kw))
	}

	hits := 0
	seen := make(map[string]bool)
	for _, tok := range Tokenize(query) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if tokenHits(tok, title, lowerKeywords, detail) {
			hits++
			if hits >= minCooccurrence {
				return true
			}
		}
	}
	return false
}

func tokenHits(tok, title string, keywords []string, detail string) bool {
	if title != "" && strings.Contains(title, tok) {
		return true
	}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(kw, tok) {
			return true
		}
	}
	return detail != "" && strings.Contains(detail, tok)
}

// Matcher applies the relevance heuristic over a knowledge store snapshot.
type Matcher struct {
	store knowledge.Store
}

func NewMatcher(store knowledge.Store) *Matcher {
	return &Matcher{store: store}
}

// MatchAll returns all relevant entries in insertion order: the local store
// first, then the external read-only source. Sources are concatenated with no
// cross-source deduplication.
func (m *Matcher) MatchAll(ctx context.Context, query string) ([]knowledge.Entry, error) {
	local, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	external, err := m.store.ListExternal(ctx)
	if err != nil {
		return nil, err
	}

	var matched []knowledge.Entry
	for _, e := range local {
		if Matches(e, query) {
			matched = append(matched, e)
		}
	}
	for _, e := range external {
		if Matches(e, query) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
