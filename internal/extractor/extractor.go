// Package extractor runs the chunked knowledge extraction pipeline: one
// completion call per chunk, strictly sequential, failures contained at
// chunk granularity.
package extractor

import (
	"context"
	"log/slog"

	"github.com/dgallion1/lorebase/internal/llm"
	"github.com/dgallion1/lorebase/internal/segment"
)

// Progress reports that chunk current of total has started processing.
type Progress func(current, total int)

// Extractor submits chunks to the completion provider and accumulates items.
type Extractor struct {
	client llm.Completer
	pacer  llm.Pacer
	log    *slog.Logger
}

func New(client llm.Completer, pacer llm.Pacer, log *slog.Logger) *Extractor {
	if pacer == nil {
		pacer = llm.None()
	}
	return &Extractor{client: client, pacer: pacer, log: log}
}

// Extract traverses chunks in order, one in-flight request at a time, with
// the pacer's delay after each chunk. A request or parse failure for one
// chunk is logged and contributes zero items; it never aborts the run. The
// returned items are already folded by (title, category).
func (x *Extractor) Extract(ctx context.Context, chunks []segment.Chunk, onProgress Progress) ([]Item, error) {
	if !x.client.Configured() {
		return nil, llm.ErrNoAPIKey
	}

	var all []Item
	total := len(chunks)
	for i, chunk := range chunks {
		if onProgress != nil {
			onProgress(i+1, total)
		}

		items, err := x.extractChunk(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			x.log.Error("chunk extraction failed", "chunk", i, "chapter", chunk.Chapter, "error", err)
		} else {
			all = append(all, items...)
		}

		if i < total-1 {
			if err := x.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}
	}

	return MergeItems(all), nil
}

func (x *Extractor) extractChunk(ctx context.Context, chunk segment.Chunk) ([]Item, error) {
	resp, err := x.client.Complete(ctx, "extract", []llm.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: buildChunkPrompt(chunk.Chapter, chunk.Content)},
	})
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := llm.UnmarshalFirstArray(resp, &items); err != nil {
		return nil, err
	}
	return items, nil
}
