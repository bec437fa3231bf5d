package syncer

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Queue is the background fan-out from the write path: a bounded channel
// consumed by one dedicated worker. Enqueue never blocks a writer; a full
// queue drops the request and counts the drop.
type Queue struct {
	engine *Engine
	ch     chan string

	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewQueue creates a queue of the given capacity and starts its worker.
func NewQueue(engine *Engine, size int) *Queue {
	if size <= 0 {
		size = 64
	}
	q := &Queue{
		engine: engine,
		ch:     make(chan string, size),
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Enqueue schedules a workspace sync. It reports false when the queue is
// full or closed and the request was dropped.
func (q *Queue) Enqueue(workspace string) bool {
	defer func() {
		// Enqueue after Close loses the race on the closed channel;
		// treat it as a drop rather than a crash.
		if recover() != nil {
			q.dropped.Add(1)
		}
	}()

	select {
	case q.ch <- workspace:
		return true
	default:
		q.dropped.Add(1)
		log.Printf("sync queue full; dropped request for workspace %s", workspace)
		return false
	}
}

// Close stops accepting requests and waits for the worker to drain.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
	q.wg.Wait()
}

// Dropped returns the number of requests dropped by a full or closed queue.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Failed returns the number of background sync runs that errored.
func (q *Queue) Failed() int64 {
	return q.failed.Load()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for workspace := range q.ch {
		stats, err := q.engine.SyncWorkspace(context.Background(), workspace)
		if err != nil {
			q.failed.Add(1)
			log.Printf("background sync failed for workspace %s: %v", workspace, err)
			continue
		}
		if stats.Failed > 0 {
			log.Printf("background sync for workspace %s: %d embeddings failed", workspace, stats.Failed)
		}
	}
}
