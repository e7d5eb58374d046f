// Package dedupe finds near-duplicate knowledge entries and consolidates
// each group through one AI merge call.
package dedupe

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/lorebase/internal/knowledge"
)

// enumSuffixRe matches a trailing run of "(N)" enumerators in ASCII or
// full-width parentheses, the pattern editors append when importing a
// clashing title. The whole run is matched so stacked suffixes like
// "(1)(2)" reduce to the same base title in one pass.
var enumSuffixRe = regexp.MustCompile(`(?:[（(][0-9]+[）)]\s*)+$`)

// NormalizeTitle strips all trailing enumerator suffixes and surrounding
// whitespace. Idempotent: normalizing a normalized title is a no-op.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = enumSuffixRe.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// Group is a set of entries sharing category and normalized base title,
// candidates for consolidation.
type Group struct {
	Category knowledge.Category `json:"category"`
	Title    string             `json:"title"` // normalized base title
	Entries  []knowledge.Entry  `json:"entries"`
}

// FindDuplicates groups entries by (category, normalized title). Only groups
// with at least two members are returned, ordered by descending member
// count; ties keep first-encountered group order.
func FindDuplicates(entries []knowledge.Entry) []Group {
	type key struct {
		category knowledge.Category
		title    string
	}

	var order []key
	byKey := make(map[key][]knowledge.Entry)
	for _, e := range entries {
		k := key{category: e.Category, title: NormalizeTitle(e.Title)}
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], e)
	}

	var groups []Group
	for _, k := range order {
		members := byKey[k]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, Group{
			Category: k.category,
			Title:    k.title,
			Entries:  members,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Entries) > len(groups[j].Entries)
	})
	return groups
}
