package extractor

import (
	"strings"

	"github.com/dgallion1/lorebase/internal/knowledge"
)

// Item is a transient knowledge candidate produced by one extraction call.
// It is merged in memory by exact (title, category) equality before being
// offered for import; it is never persisted directly.
type Item struct {
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Content  string   `json:"content"`
}

// MergeItems folds items sharing an exact (title, category) pair: content is
// joined with a blank line, keywords are unioned preserving first-seen order.
// This pre-import merge uses no AI call; it is distinct from the duplicate
// group merge, which consolidates persisted entries.
func MergeItems(items []Item) []Item {
	type key struct{ title, category string }

	var order []key
	merged := make(map[key]*Item)

	for _, item := range items {
		k := key{title: item.Title, category: item.Category}
		existing, ok := merged[k]
		if !ok {
			cp := item
			cp.Keywords = dedupeKeywords(item.Keywords)
			merged[k] = &cp
			order = append(order, k)
			continue
		}
		if item.Content != "" {
			if existing.Content != "" {
				existing.Content += "\n\n" + item.Content
			} else {
				existing.Content = item.Content
			}
		}
		existing.Keywords = unionKeywords(existing.Keywords, item.Keywords)
	}

	out := make([]Item, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	return out
}

func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	var out []string
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func unionKeywords(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, kw := range existing {
		seen[kw] = true
	}
	for _, kw := range incoming {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		existing = append(existing, kw)
	}
	return existing
}

// ToEntry converts an item into a storable knowledge entry. Freeform content
// lands in the category's first defined field key; the structured multi-field
// schema is deliberately not reconstructed here.
func (it Item) ToEntry() knowledge.Entry {
	cat := knowledge.ParseCategory(it.Category)
	return knowledge.Entry{
		ID:       knowledge.NewID(),
		Category: cat,
		Title:    strings.TrimSpace(it.Title),
		Keywords: dedupeKeywords(it.Keywords),
		Details: map[string]string{
			knowledge.FirstFieldKey(cat): it.Content,
		},
	}
}
