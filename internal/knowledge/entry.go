package knowledge

import (
	"sort"
	"strings"
)

// Category classifies a knowledge entry. The set is closed; anything the
// extraction model invents outside it is coerced to CategoryOther.
type Category string

const (
	CategoryCharacter Category = "character"
	CategoryWorld     Category = "world"
	CategoryPlot      Category = "plot"
	CategorySetting   Category = "setting"
	CategoryOther     Category = "other"
)

// Field is one category-specific detail slot.
type Field struct {
	Key   string
	Label string
}

// categoryFields defines the ordered detail schema per category. The first
// field of each category doubles as the landing slot for freeform content
// produced by extraction and AI merge.
var categoryFields = map[Category][]Field{
	CategoryCharacter: {
		{Key: "profile", Label: "简介"},
		{Key: "appearance", Label: "外貌"},
		{Key: "personality", Label: "性格"},
		{Key: "background", Label: "背景"},
		{Key: "relations", Label: "人物关系"},
	},
	CategoryWorld: {
		{Key: "overview", Label: "概述"},
		{Key: "rules", Label: "规则体系"},
		{Key: "factions", Label: "势力"},
		{Key: "history", Label: "历史"},
	},
	CategoryPlot: {
		{Key: "summary", Label: "梗概"},
		{Key: "conflict", Label: "冲突"},
		{Key: "foreshadowing", Label: "伏笔"},
	},
	CategorySetting: {
		{Key: "description", Label: "描述"},
		{Key: "usage", Label: "用途"},
	},
	CategoryOther: {
		{Key: "content", Label: "内容"},
	},
}

var categoryLabels = map[Category]string{
	CategoryCharacter: "人物",
	CategoryWorld:     "世界观",
	CategoryPlot:      "情节",
	CategorySetting:   "设定",
	CategoryOther:     "其他",
}

// ValidCategory reports whether c is one of the closed category values.
func ValidCategory(c Category) bool {
	_, ok := categoryFields[c]
	return ok
}

// ParseCategory maps a raw string onto the closed category set, falling back
// to CategoryOther for anything unrecognized.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if ValidCategory(c) {
		return c
	}
	return CategoryOther
}

// Fields returns the ordered detail schema for a category. Unknown categories
// have no defined fields.
func Fields(c Category) []Field {
	return categoryFields[c]
}

// FirstFieldKey returns the landing field for freeform content, or "content"
// when the category carries no schema.
func FirstFieldKey(c Category) string {
	if fs := categoryFields[c]; len(fs) > 0 {
		return fs[0].Key
	}
	return "content"
}

// Label returns the display label for a category, falling back to the raw
// value so unknown categories stay visible rather than blank.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Entry is a stored fact record about the fictional work.
type Entry struct {
	ID       string            `json:"id"`
	Category Category          `json:"category"`
	Title    string            `json:"title"`
	Keywords []string          `json:"keywords"`
	Details  map[string]string `json:"details"`
}

// Detail returns the value for a field key; absent keys read as empty.
func (e Entry) Detail(key string) string {
	return e.Details[key]
}

// RenderDetails renders the entry's detail fields as "label：value" lines.
// Known categories walk the schema in order, skipping empty fields. An
// unrecognized category is an explicit fallback arm: it has no known fields,
// so every non-empty raw value is dumped under its own key.
func (e Entry) RenderDetails() string {
	var b strings.Builder
	if fields, ok := categoryFields[e.Category]; ok {
		for _, f := range fields {
			v := strings.TrimSpace(e.Details[f.Key])
			if v == "" {
				continue
			}
			b.WriteString(f.Label)
			b.WriteString("：")
			b.WriteString(v)
			b.WriteString("\n")
		}
		return b.String()
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.TrimSpace(e.Details[k])
		if v == "" {
			continue
		}
		b.WriteString(k)
		b.WriteString("：")
		b.WriteString(v)
		b.WriteString("\n")
	}
	return b.String()
}

// DetailText concatenates all non-empty detail values, for substring matching.
func (e Entry) DetailText() string {
	var parts []string
	for _, v := range e.Details {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
