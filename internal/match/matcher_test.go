package match

import (
	"context"
	"testing"

	"github.com/dgallion1/lorebase/internal/knowledge"
)

func TestMatches_TitleContainment(t *testing.T) {
	e := knowledge.Entry{
		Category: knowledge.CategoryCharacter,
		Title:    "龙傲天",
		Keywords: []string{"主角"},
	}
	if !Matches(e, "龙傲天今天很开心") {
		t.Error("expected title containment to match")
	}
}

func TestMatches_EmptyTitleNeverMatches(t *testing.T) {
	e := knowledge.Entry{Category: knowledge.CategoryOther, Title: ""}
	if Matches(e, "任意文本") {
		t.Error("expected entry with empty title and no keywords to not match")
	}
}

func TestMatches_KeywordContainment(t *testing.T) {
	e := knowledge.Entry{
		Category: knowledge.CategoryCharacter,
		Title:    "某人",
		Keywords: []string{"  青云宗  ", ""},
	}
	if !Matches(e, "他回到了青云宗的山门") {
		t.Error("expected trimmed keyword containment to match")
	}
}

func TestMatches_CooccurrenceTwoTokens(t *testing.T) {
	e := knowledge.Entry{
		Category: knowledge.CategorySetting,
		Title:    "X",
		Details: map[string]string{
			"description": "一把宝剑，藏在湖边的山洞里",
		},
	}
	// Punctuation separates the tokens 宝剑 and 湖边; both appear in
	// details, giving two distinct hits.
	if !Matches(e, "他带着，宝剑，走向，湖边") {
		t.Error("expected two-token co-occurrence to match")
	}
}

func TestMatches_SingleTokenInsufficient(t *testing.T) {
	e := knowledge.Entry{
		Category: knowledge.CategorySetting,
		Title:    "X",
		Details: map[string]string{
			"description": "一把宝剑",
		},
	}
	if Matches(e, "宝剑，出门") {
		t.Error("expected single co-occurring token to be insufficient")
	}
}

func TestMatches_SingleCharTokensFiltered(t *testing.T) {
	// 剑 and 湖 are single runes; the tokenizer drops them, so no
	// co-occurrence hits accumulate.
	e := knowledge.Entry{
		Category: knowledge.CategorySetting,
		Title:    "X",
		Details:  map[string]string{"a": "剑", "b": "湖"},
	}
	if Matches(e, "他带着 剑 走向 湖 边") {
		t.Error("expected single-character tokens to be filtered out")
	}
}

func TestMatches_DuplicateTokensCountOnce(t *testing.T) {
	e := knowledge.Entry{
		Category: knowledge.CategorySetting,
		Title:    "X",
		Details:  map[string]string{"a": "宝剑"},
	}
	if Matches(e, "宝剑 宝剑 宝剑") {
		t.Error("expected repeated token to count as one hit")
	}
}

func TestMatchAll_OrderAndSources(t *testing.T) {
	store := knowledge.NewMemStore()
	ctx := context.Background()

	a := knowledge.Entry{ID: "a", Category: knowledge.CategoryCharacter, Title: "龙傲天"}
	b := knowledge.Entry{ID: "b", Category: knowledge.CategoryCharacter, Title: "无关人物"}
	c := knowledge.Entry{ID: "c", Category: knowledge.CategoryCharacter, Title: "叶凡"}
	for _, e := range []knowledge.Entry{a, b, c} {
		if err := store.Add(ctx, e); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	store.SetExternal([]knowledge.Entry{
		{ID: "x", Category: knowledge.CategoryCharacter, Title: "龙傲天"},
	})

	m := NewMatcher(store)
	got, err := m.MatchAll(ctx, "龙傲天与叶凡交手")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Local matches in insertion order, then the external duplicate;
	// no cross-source dedup.
	wantIDs := []string{"a", "c", "x"}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d matches, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("match[%d]: expected ID %q, got %q", i, id, got[i].ID)
		}
	}
}
