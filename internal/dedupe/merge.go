package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/lorebase/internal/knowledge"
	"github.com/dgallion1/lorebase/internal/llm"
)

const mergeSystemPrompt = `你是一个小说知识库整理助手。下面列出了若干条关于同一对象的重复知识条目。请把它们合并为一条完整的条目，覆盖所有条目中出现的全部不同信息，不得遗漏。

只回复一个 JSON 对象，格式为：
{"title": "合并后的标题", "keywords": ["关键词"], "content": "合并后的完整内容"}

不要输出其他文字。`

// mergedPayload is the consolidated object the model must return.
type mergedPayload struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Content  string   `json:"content"`
}

// Result reports one group's merge outcome in a merge-all run.
type Result struct {
	Group   Group           `json:"group"`
	Entry   knowledge.Entry `json:"entry,omitempty"`
	Deleted int             `json:"deleted"`
	Err     error           `json:"-"`
	Error   string          `json:"error,omitempty"`
}

// Merger consolidates duplicate groups through the completion provider.
type Merger struct {
	client llm.Completer
	store  knowledge.Store
	pacer  llm.Pacer
	log    *slog.Logger
}

func NewMerger(client llm.Completer, store knowledge.Store, pacer llm.Pacer, log *slog.Logger) *Merger {
	if pacer == nil {
		pacer = llm.None()
	}
	return &Merger{client: client, store: store, pacer: pacer, log: log}
}

// MergeGroup consolidates one group into a new stored entry. The credential
// check happens before any network attempt. A format failure aborts only
// this group's merge. Original members are deleted only when deleteOriginals
// is set; the merged entry is stored either way.
func (m *Merger) MergeGroup(ctx context.Context, group Group, deleteOriginals bool) (knowledge.Entry, int, error) {
	if !m.client.Configured() {
		return knowledge.Entry{}, 0, llm.ErrNoAPIKey
	}

	resp, err := m.client.Complete(ctx, "merge", []llm.Message{
		{Role: "system", Content: mergeSystemPrompt},
		{Role: "user", Content: buildMergePrompt(group)},
	})
	if err != nil {
		return knowledge.Entry{}, 0, err
	}

	var payload mergedPayload
	if err := llm.UnmarshalFirstObject(resp, &payload); err != nil {
		return knowledge.Entry{}, 0, err
	}
	if strings.TrimSpace(payload.Title) == "" {
		payload.Title = group.Title
	}

	// The merged content lands in the category's first defined field key.
	// Category-specific field structure is traded for one freeform field;
	// this mirrors the extraction import path.
	entry := knowledge.Entry{
		ID:       knowledge.NewID(),
		Category: group.Category,
		Title:    strings.TrimSpace(payload.Title),
		Keywords: cleanKeywords(payload.Keywords),
		Details: map[string]string{
			knowledge.FirstFieldKey(group.Category): payload.Content,
		},
	}
	if err := m.store.Add(ctx, entry); err != nil {
		return knowledge.Entry{}, 0, fmt.Errorf("store merged entry: %w", err)
	}

	deleted := 0
	if deleteOriginals {
		for _, member := range group.Entries {
			if err := m.store.Delete(ctx, member.ID); err != nil {
				m.log.Error("delete original after merge failed", "id", member.ID, "error", err)
				continue
			}
			deleted++
		}
	}

	return entry, deleted, nil
}

// MergeAll iterates groups sequentially with the pacer's delay between them.
// Each group's success or failure is reported independently; one failure
// never aborts subsequent groups.
func (m *Merger) MergeAll(ctx context.Context, groups []Group, deleteOriginals bool) []Result {
	if !m.client.Configured() {
		results := make([]Result, len(groups))
		for i, g := range groups {
			results[i] = Result{Group: g, Err: llm.ErrNoAPIKey, Error: llm.ErrNoAPIKey.Error()}
		}
		return results
	}

	results := make([]Result, 0, len(groups))
	for i, group := range groups {
		entry, deleted, err := m.MergeGroup(ctx, group, deleteOriginals)
		r := Result{Group: group, Entry: entry, Deleted: deleted, Err: err}
		if err != nil {
			r.Error = err.Error()
			m.log.Error("group merge failed", "title", group.Title, "category", group.Category, "error", err)
		}
		results = append(results, r)

		if ctx.Err() != nil {
			break
		}
		if i < len(groups)-1 {
			if err := m.pacer.Wait(ctx); err != nil {
				break
			}
		}
	}
	return results
}

// cleanKeywords trims model-returned keywords and drops empties and
// duplicates, preserving first-seen order.
func cleanKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func buildMergePrompt(group Group) string {
	var sb strings.Builder
	sb.WriteString("类别：")
	sb.WriteString(group.Category.Label())
	sb.WriteString("\n\n")
	for i, e := range group.Entries {
		sb.WriteString(fmt.Sprintf("条目 %d：%s\n", i+1, e.Title))
		if len(e.Keywords) > 0 {
			sb.WriteString("关键词：")
			sb.WriteString(strings.Join(e.Keywords, "、"))
			sb.WriteString("\n")
		}
		if details := e.RenderDetails(); details != "" {
			sb.WriteString(details)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
