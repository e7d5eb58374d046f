package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/lorebase/internal/knowledge"
	"github.com/dgallion1/lorebase/internal/llm"
	"github.com/dgallion1/lorebase/internal/segment"
)

// stubCompleter replays canned responses per call, in order.
type stubCompleter struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *stubCompleter) Configured() bool { return true }

func (s *stubCompleter) Complete(ctx context.Context, op string, messages []llm.Message) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "[]", nil
}

type unconfiguredCompleter struct{}

func (unconfiguredCompleter) Configured() bool { return false }
func (unconfiguredCompleter) Complete(ctx context.Context, op string, messages []llm.Message) (string, error) {
	return "", llm.ErrNoAPIKey
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtract_AccumulatesAcrossChunks(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{
			`[{"category":"character","title":"龙傲天","keywords":["主角"],"content":"主角，剑修。"}]`,
			`[{"category":"setting","title":"青云剑","keywords":["法宝"],"content":"一把古剑。"}]`,
		},
	}
	x := New(stub, llm.None(), testLogger())

	chunks := []segment.Chunk{
		{Content: "第一段正文", Chapter: "第一章 开端"},
		{Content: "第二段正文"},
	}
	items, err := x.Extract(context.Background(), chunks, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "龙傲天" || items[1].Title != "青云剑" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestExtract_ChapterHintInPrompt(t *testing.T) {
	stub := &stubCompleter{}
	x := New(stub, llm.None(), testLogger())

	chunks := []segment.Chunk{{Content: "正文", Chapter: "第三章 试炼"}}
	if _, err := x.Extract(context.Background(), chunks, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.prompts) != 1 {
		t.Fatalf("expected 1 call, got %d", len(stub.prompts))
	}
	if got := stub.prompts[0]; !strings.Contains(got, "第三章 试炼") {
		t.Errorf("expected chapter hint in prompt, got %q", got)
	}
}

func TestExtract_FailedChunkContributesZeroItems(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{
			"",
			`[{"category":"character","title":"叶凡","content":"配角。"}]`,
		},
		errs: []error{fmt.Errorf("boom"), nil},
	}
	x := New(stub, llm.None(), testLogger())

	chunks := []segment.Chunk{{Content: "a"}, {Content: "b"}}
	items, err := x.Extract(context.Background(), chunks, nil)
	if err != nil {
		t.Fatalf("expected pipeline to survive chunk failure, got %v", err)
	}
	if len(items) != 1 || items[0].Title != "叶凡" {
		t.Errorf("expected only the successful chunk's item, got %+v", items)
	}
	if stub.calls != 2 {
		t.Errorf("expected both chunks attempted, got %d calls", stub.calls)
	}
}

func TestExtract_UnparseableResponseContained(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{
			"抱歉，没有可提取的内容。",
			`[{"category":"plot","title":"夺宝","content":"主角夺得古剑。"}]`,
		},
	}
	x := New(stub, llm.None(), testLogger())

	items, err := x.Extract(context.Background(), []segment.Chunk{{Content: "a"}, {Content: "b"}}, nil)
	if err != nil {
		t.Fatalf("expected format failure contained per chunk, got %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
}

func TestExtract_ProgressReported(t *testing.T) {
	stub := &stubCompleter{}
	x := New(stub, llm.None(), testLogger())

	var reports [][2]int
	chunks := []segment.Chunk{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	_, err := x.Extract(context.Background(), chunks, func(current, total int) {
		reports = append(reports, [2]int{current, total})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if !reflect.DeepEqual(reports, want) {
		t.Errorf("expected progress %v, got %v", want, reports)
	}
}

func TestExtract_NoCredential(t *testing.T) {
	x := New(unconfiguredCompleter{}, llm.None(), testLogger())
	_, err := x.Extract(context.Background(), []segment.Chunk{{Content: "a"}}, nil)
	if err == nil {
		t.Fatal("expected credential error before any work")
	}
}

func TestExtract_SameTitleCategoryMergedAcrossChunks(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{
			`[{"category":"character","title":"龙傲天","keywords":["主角","剑修"],"content":"第一章中的描写。"}]`,
			`[{"category":"character","title":"龙傲天","keywords":["剑修","青云宗"],"content":"第二章中的描写。"}]`,
		},
	}
	x := New(stub, llm.None(), testLogger())

	items, err := x.Extract(context.Background(), []segment.Chunk{{Content: "a"}, {Content: "b"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected fold into 1 item, got %d", len(items))
	}
	if items[0].Content != "第一章中的描写。\n\n第二章中的描写。" {
		t.Errorf("expected blank-line join, got %q", items[0].Content)
	}
	wantKw := []string{"主角", "剑修", "青云宗"}
	if !reflect.DeepEqual(items[0].Keywords, wantKw) {
		t.Errorf("expected keyword union %v, got %v", wantKw, items[0].Keywords)
	}
}

func TestMergeItems_DifferentCategoriesStaySeparate(t *testing.T) {
	items := MergeItems([]Item{
		{Category: "character", Title: "同名", Content: "人物"},
		{Category: "setting", Title: "同名", Content: "物品"},
	})
	if len(items) != 2 {
		t.Errorf("expected items with same title but different category to stay separate, got %d", len(items))
	}
}

func TestItem_ToEntryFirstFieldKey(t *testing.T) {
	it := Item{Category: "character", Title: " 龙傲天 ", Keywords: []string{"主角", "主角"}, Content: "主角设定"}
	e := it.ToEntry()
	if e.ID == "" {
		t.Error("expected generated ID")
	}
	if e.Category != knowledge.CategoryCharacter {
		t.Errorf("expected character category, got %q", e.Category)
	}
	if e.Title != "龙傲天" {
		t.Errorf("expected trimmed title, got %q", e.Title)
	}
	if got := e.Details[knowledge.FirstFieldKey(e.Category)]; got != "主角设定" {
		t.Errorf("expected content in first field key, got %q", got)
	}
	if len(e.Keywords) != 1 {
		t.Errorf("expected deduplicated keywords, got %v", e.Keywords)
	}
}

func TestItem_ToEntryUnknownCategoryCoerced(t *testing.T) {
	e := Item{Category: "神秘类别", Title: "t", Content: "c"}.ToEntry()
	if e.Category != knowledge.CategoryOther {
		t.Errorf("expected unknown category coerced to other, got %q", e.Category)
	}
}
