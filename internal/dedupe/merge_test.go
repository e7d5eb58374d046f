package dedupe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/lorebase/internal/knowledge"
	"github.com/dgallion1/lorebase/internal/llm"
)

type stubCompleter struct {
	responses  []string
	errs       []error
	calls      int
	configured bool
}

func (s *stubCompleter) Configured() bool { return s.configured }

func (s *stubCompleter) Complete(ctx context.Context, op string, messages []llm.Message) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return `{"title":"合并","keywords":[],"content":"内容"}`, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedGroup(t *testing.T, store *knowledge.MemStore) Group {
	t.Helper()
	ctx := context.Background()
	a := knowledge.Entry{
		ID: "a", Category: knowledge.CategoryCharacter, Title: "龙傲天",
		Keywords: []string{"主角"},
		Details:  map[string]string{"profile": "剑修"},
	}
	b := knowledge.Entry{
		ID: "b", Category: knowledge.CategoryCharacter, Title: "龙傲天(2)",
		Details: map[string]string{"profile": "青云宗弟子"},
	}
	for _, e := range []knowledge.Entry{a, b} {
		if err := store.Add(ctx, e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return Group{Category: knowledge.CategoryCharacter, Title: "龙傲天", Entries: []knowledge.Entry{a, b}}
}

func TestMergeGroup_Success(t *testing.T) {
	store := knowledge.NewMemStore()
	group := seedGroup(t, store)
	stub := &stubCompleter{
		configured: true,
		responses:  []string{`{"title":"龙傲天","keywords":["主角","剑修"],"content":"剑修，青云宗弟子。"}`},
	}
	m := NewMerger(stub, store, llm.None(), testLogger())

	entry, deleted, err := m.MergeGroup(context.Background(), group, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected no deletions without opt-in, got %d", deleted)
	}
	if entry.Title != "龙傲天" || entry.Category != knowledge.CategoryCharacter {
		t.Errorf("unexpected merged entry %+v", entry)
	}
	key := knowledge.FirstFieldKey(knowledge.CategoryCharacter)
	if entry.Details[key] != "剑修，青云宗弟子。" {
		t.Errorf("expected merged content in first field key %q, got %q", key, entry.Details[key])
	}

	all, _ := store.List(context.Background())
	if len(all) != 3 {
		t.Errorf("expected originals kept plus merged entry (3), got %d", len(all))
	}
}

func TestMergeGroup_CleansModelKeywords(t *testing.T) {
	store := knowledge.NewMemStore()
	group := seedGroup(t, store)
	stub := &stubCompleter{
		configured: true,
		responses:  []string{`{"title":"龙傲天","keywords":[" 主角","主角","","剑修 "],"content":"内容"}`},
	}
	m := NewMerger(stub, store, llm.None(), testLogger())

	entry, _, err := m.MergeGroup(context.Background(), group, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"主角", "剑修"}
	if len(entry.Keywords) != len(want) {
		t.Fatalf("expected keywords %v, got %v", want, entry.Keywords)
	}
	for i, kw := range want {
		if entry.Keywords[i] != kw {
			t.Errorf("keyword %d: expected %q, got %q", i, kw, entry.Keywords[i])
		}
	}
}

func TestMergeGroup_DeleteOriginals(t *testing.T) {
	store := knowledge.NewMemStore()
	group := seedGroup(t, store)
	stub := &stubCompleter{configured: true}
	m := NewMerger(stub, store, llm.None(), testLogger())

	_, deleted, err := m.MergeGroup(context.Background(), group, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 originals deleted, got %d", deleted)
	}
	all, _ := store.List(context.Background())
	if len(all) != 1 {
		t.Errorf("expected only merged entry remaining, got %d", len(all))
	}
}

func TestMergeGroup_NoCredentialBeforeNetwork(t *testing.T) {
	store := knowledge.NewMemStore()
	group := seedGroup(t, store)
	stub := &stubCompleter{configured: false}
	m := NewMerger(stub, store, llm.None(), testLogger())

	_, _, err := m.MergeGroup(context.Background(), group, false)
	if !errors.Is(err, llm.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if stub.calls != 0 {
		t.Errorf("expected no completion attempt, got %d calls", stub.calls)
	}
}

func TestMergeGroup_FormatErrorAbortsGroupOnly(t *testing.T) {
	store := knowledge.NewMemStore()
	group := seedGroup(t, store)
	stub := &stubCompleter{
		configured: true,
		responses:  []string{"这不是一个 JSON 对象"},
	}
	m := NewMerger(stub, store, llm.None(), testLogger())

	_, _, err := m.MergeGroup(context.Background(), group, true)
	if !errors.Is(err, llm.ErrBadFormat) {
		t.Fatalf("expected ErrBadFormat, got %v", err)
	}
	// Nothing stored, nothing deleted on failure.
	all, _ := store.List(context.Background())
	if len(all) != 2 {
		t.Errorf("expected store untouched on format error, got %d entries", len(all))
	}
}

func TestMergeAll_FailureDoesNotAbortSubsequentGroups(t *testing.T) {
	store := knowledge.NewMemStore()
	ctx := context.Background()
	var groups []Group
	for i := 0; i < 3; i++ {
		a := knowledge.Entry{ID: fmt.Sprintf("a%d", i), Category: knowledge.CategoryPlot, Title: fmt.Sprintf("情节%d", i)}
		b := knowledge.Entry{ID: fmt.Sprintf("b%d", i), Category: knowledge.CategoryPlot, Title: fmt.Sprintf("情节%d(2)", i)}
		store.Add(ctx, a)
		store.Add(ctx, b)
		groups = append(groups, Group{Category: knowledge.CategoryPlot, Title: fmt.Sprintf("情节%d", i), Entries: []knowledge.Entry{a, b}})
	}

	stub := &stubCompleter{
		configured: true,
		errs:       []error{nil, fmt.Errorf("transport down"), nil},
	}
	m := NewMerger(stub, store, llm.None(), testLogger())

	results := m.MergeAll(ctx, groups, false)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("expected groups 0 and 2 to succeed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("expected group 1 to report failure")
	}
	if stub.calls != 3 {
		t.Errorf("expected all 3 groups attempted, got %d calls", stub.calls)
	}
}

func TestMergeAll_NoCredentialFailsAllWithoutCalls(t *testing.T) {
	store := knowledge.NewMemStore()
	stub := &stubCompleter{configured: false}
	m := NewMerger(stub, store, llm.None(), testLogger())

	groups := []Group{{Category: knowledge.CategoryPlot, Title: "x"}}
	results := m.MergeAll(context.Background(), groups, false)
	if len(results) != 1 || !errors.Is(results[0].Err, llm.ErrNoAPIKey) {
		t.Fatalf("expected credential failure result, got %+v", results)
	}
	if stub.calls != 0 {
		t.Errorf("expected zero completion calls, got %d", stub.calls)
	}
}
