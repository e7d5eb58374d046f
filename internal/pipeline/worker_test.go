package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/lorebase/internal/extractor"
	"github.com/dgallion1/lorebase/internal/knowledge"
	"github.com/dgallion1/lorebase/internal/llm"
)

type stubCompleter struct {
	resp       string
	err        error
	configured bool
	calls      int
}

func (s *stubCompleter) Configured() bool { return s.configured }

func (s *stubCompleter) Complete(ctx context.Context, op string, messages []llm.Message) (string, error) {
	s.calls++
	return s.resp, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func manuscriptText() []byte {
	return []byte("第一章 开端\n\n" + strings.Repeat("龙傲天握紧了手中的长剑。", 10))
}

func TestWorker_ProcessCompletes(t *testing.T) {
	client := &stubCompleter{
		configured: true,
		resp:       `[{"category":"character","title":"龙傲天","keywords":["主角"],"content":"手持长剑的少年。"}]`,
	}
	store := knowledge.NewMemStore()
	ext := extractor.New(client, llm.None(), discardLogger())
	w := NewWorker(store, ext, discardLogger(), 3000)

	job := &Job{ID: "j1", Filename: "novel.txt", Status: StatusQueued, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	job.SetFileData(manuscriptText())

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalChunks != 1 || snap.Progress.ChunksProcessed != 1 {
		t.Errorf("unexpected chunk progress: %+v", snap.Progress)
	}
	if snap.Progress.EntriesStored != 1 {
		t.Errorf("expected 1 entry stored, got %d", snap.Progress.EntriesStored)
	}

	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "龙傲天" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Detail("profile") != "手持长剑的少年。" {
		t.Errorf("expected content in first field key, got %+v", entries[0].Details)
	}
}

func TestWorker_ProcessRejectsUnknownFormat(t *testing.T) {
	client := &stubCompleter{configured: true}
	w := NewWorker(knowledge.NewMemStore(), extractor.New(client, llm.None(), discardLogger()), discardLogger(), 3000)

	job := &Job{ID: "j2", Filename: "novel.exe", UpdatedAt: time.Now()}
	job.SetFileData([]byte("data"))

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed, got %q", job.Snapshot().Status)
	}
	if client.calls != 0 {
		t.Errorf("expected no completion calls, got %d", client.calls)
	}
}

func TestWorker_ProcessFailsWithoutCredential(t *testing.T) {
	client := &stubCompleter{configured: false}
	w := NewWorker(knowledge.NewMemStore(), extractor.New(client, llm.None(), discardLogger()), discardLogger(), 3000)

	job := &Job{ID: "j3", Filename: "novel.txt", UpdatedAt: time.Now()}
	job.SetFileData(manuscriptText())

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed, got %q", snap.Status)
	}
	if client.calls != 0 {
		t.Errorf("expected credential check before any call, got %d calls", client.calls)
	}
}

func TestWorker_ProcessFailsOnEmptyManuscript(t *testing.T) {
	client := &stubCompleter{configured: true}
	w := NewWorker(knowledge.NewMemStore(), extractor.New(client, llm.None(), discardLogger()), discardLogger(), 3000)

	job := &Job{ID: "j4", Filename: "novel.txt", UpdatedAt: time.Now()}
	job.SetFileData([]byte("太短。"))

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed for contentless manuscript, got %q", job.Snapshot().Status)
	}
}
