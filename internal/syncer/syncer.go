// Package syncer keeps the embedding store consistent with the checkpoint
// logs. Content hashing gates the external embedding process: unchanged
// entries never trigger a call, so re-running a sync over unchanged logs is
// free.
package syncer

import (
	"context"
	"log"
	"time"

	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/embed"
	"github.com/cairnhq/cairn/internal/logstore"
	"github.com/cairnhq/cairn/internal/vecstore"
)

// embedBatchSize bounds one call to the external embedding process.
const embedBatchSize = 32

// Stats reports one synchronization run.
type Stats struct {
	// Total is the number of entries discovered under the workspace.
	Total int `json:"total"`
	// AlreadyEmbedded counts entries whose stored embedding is current.
	AlreadyEmbedded int `json:"alreadyEmbedded"`
	// Queued counts entries needing a new or refreshed embedding.
	Queued int `json:"queued"`
	// Generated counts embeddings produced and stored this run.
	Generated int `json:"generated"`
	// Failed counts entries whose embedding attempt failed.
	Failed int `json:"failed"`
}

// item is one entry queued for embedding.
type item struct {
	id   string
	hash string
	file string
	pos  int
	text string
}

// Engine scans checkpoint logs and fills gaps in the embedding store.
type Engine struct {
	logs     *logstore.Store
	vectors  *vecstore.Store
	embedder embed.Embedder
}

// NewEngine creates a synchronization engine over the shared stores.
func NewEngine(logs *logstore.Store, vectors *vecstore.Store, embedder embed.Embedder) *Engine {
	return &Engine{logs: logs, vectors: vectors, embedder: embedder}
}

// SyncWorkspace brings the embedding store up to date for one workspace.
// A missing or non-functional embedding process degrades the whole run to a
// logged no-op: semantic search is simply unavailable.
func (e *Engine) SyncWorkspace(ctx context.Context, workspace string) (*Stats, error) {
	stats := &Stats{}

	if e.embedder == nil || !e.embedder.Available() {
		log.Printf("embedder unavailable; skipping sync for workspace %s", workspace)
		return stats, nil
	}

	// Phase 1: scan and diff against the store.
	var queue []item
	days, err := e.logs.Days(workspace)
	if err != nil {
		return nil, err
	}
	for _, day := range days {
		entries, err := e.logs.ReadDay(workspace, day)
		if err != nil {
			return nil, err
		}
		file := day.Format(checkpoint.DateLayout) + ".md"
		for pos, cp := range entries {
			stats.Total++
			id := vecstore.RecordID(workspace, file, pos)
			hash := vecstore.HashContent(cp.Description)

			current, err := e.vectors.Has(id, hash)
			if err != nil {
				return nil, err
			}
			if current {
				stats.AlreadyEmbedded++
				continue
			}
			queue = append(queue, item{id: id, hash: hash, file: file, pos: pos, text: cp.Description})
		}
	}
	stats.Queued = len(queue)

	// Phase 2: embed in batches, counting per-item failures.
	now := time.Now().Unix()
	for start := 0; start < len(queue); start += embedBatchSize {
		end := min(start+embedBatchSize, len(queue))
		batch := queue[start:end]

		texts := make([]string, len(batch))
		for i, it := range batch {
			texts[i] = it.text
		}

		vecs, err := e.embedder.Embed(ctx, texts)
		if err != nil {
			log.Printf("embed batch failed for workspace %s: %v", workspace, err)
			stats.Failed += len(batch)
			continue
		}

		for i, it := range batch {
			rec := vecstore.Record{
				ID:          it.id,
				Workspace:   workspace,
				SourceFile:  it.file,
				Position:    it.pos,
				Vector:      vecs[i],
				ContentHash: it.hash,
				CreatedAt:   now,
			}
			if err := e.vectors.Upsert(rec); err != nil {
				log.Printf("store embedding %s failed: %v", it.id, err)
				stats.Failed++
				continue
			}
			stats.Generated++
		}
	}

	return stats, nil
}
