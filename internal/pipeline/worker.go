package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/lorebase/internal/extractor"
	"github.com/dgallion1/lorebase/internal/knowledge"
	"github.com/dgallion1/lorebase/internal/llm"
	"github.com/dgallion1/lorebase/internal/parser"
	"github.com/dgallion1/lorebase/internal/segment"
)

// Worker processes a single manuscript import job.
type Worker struct {
	store     knowledge.Store
	extractor *extractor.Extractor
	log       *slog.Logger

	chunkMaxChars int
}

func NewWorker(store knowledge.Store, ext *extractor.Extractor, log *slog.Logger, chunkMaxChars int) *Worker {
	return &Worker{
		store:         store,
		extractor:     ext,
		log:           log,
		chunkMaxChars: chunkMaxChars,
	}
}

// Process runs the full import pipeline for a job: parse, segment, extract,
// fold, store. Extraction within one job is strictly sequential.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	text, err := p.Read(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	chunks := segment.Segment(text, w.chunkMaxChars)
	job.SetTotalChunks(len(chunks))
	log.Info("segmented manuscript", "chunks", len(chunks))

	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	// Phase 3: Extract, one chunk in flight at a time.
	job.SetStatus(StatusExtracting, "extracting")
	items, err := w.extractor.Extract(ctx, chunks, func(current, total int) {
		job.SetChunksProcessed(current - 1)
	})
	if err != nil {
		if errors.Is(err, llm.ErrNoAPIKey) {
			log.Error("extraction requires a completion credential")
		} else {
			log.Error("extraction aborted", "error", err)
		}
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	job.SetChunksProcessed(len(chunks))
	job.AddItems(len(items), 0)
	log.Info("extraction complete", "items", len(items))

	if len(items) == 0 {
		job.SetStatus(StatusFailed, "extracting")
		job.AddError("no items extracted")
		return
	}

	// Phase 4: Store folded items as entries.
	job.SetStatus(StatusMerging, "storing entries")
	stored := 0
	for _, item := range items {
		entry := item.ToEntry()
		if entry.Title == "" {
			continue
		}
		if err := w.store.Add(ctx, entry); err != nil {
			log.Error("store entry failed", "title", entry.Title, "error", err)
			job.AddError(fmt.Sprintf("store %s: %s", entry.Title, err))
			continue
		}
		stored++
	}
	job.AddItems(0, stored)
	log.Info("storage complete", "stored", stored, "total", len(items))

	switch {
	case stored == 0:
		job.SetStatus(StatusFailed, "storing entries")
	case job.ErrorCount() > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}
