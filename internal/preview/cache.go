// Package preview owns the shared per-file preview cache: fetched previews,
// their derived outlines, and the in-flight request map. The row projector
// only ever reads completed entries; a miss yields a loading row and the host
// requests a fetch through this cache.
package preview

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"folio/internal/engine"
	"folio/internal/outline"
)

const (
	cacheSize = 256
	// flushAfter batches fetch completions so a burst of async results
	// triggers one recomputation instead of one per preview.
	flushAfter = 50 * time.Millisecond
)

// FetchFunc retrieves one document's preview from the engine.
type FetchFunc func(ctx context.Context, fileID int64) (*engine.FilePreview, error)

// NotifyFunc receives the file ids whose previews completed since the last
// flush. It runs on the flush timer's goroutine.
type NotifyFunc func(fileIDs []int64)

type derived struct {
	outline   *outline.Outline
	citations []engine.TaggedBlock
}

// Cache is the process-wide preview store. At most one fetch is in flight per
// file id; concurrent requesters share the pending fetch. The derived outline
// lives in an explicit side table keyed by file id and is invalidated whenever
// a new preview replaces the cached one, never patched incrementally.
type Cache struct {
	fetch  FetchFunc
	notify NotifyFunc
	log    zerolog.Logger

	mu       sync.Mutex
	previews *lru.Cache[int64, *engine.FilePreview]
	outlines map[int64]derived
	pending  map[int64]bool

	batch []int64
	timer *time.Timer
}

// NewCache creates a cache that fetches previews with fetch and reports
// batched completions through notify.
func NewCache(fetch FetchFunc, notify NotifyFunc, log zerolog.Logger) *Cache {
	c := &Cache{
		fetch:    fetch,
		notify:   notify,
		log:      log,
		outlines: make(map[int64]derived),
		pending:  make(map[int64]bool),
	}
	c.previews, _ = lru.NewWithEvict[int64, *engine.FilePreview](cacheSize, func(key int64, _ *engine.FilePreview) {
		delete(c.outlines, key)
	})
	return c
}

// Outline returns the derived outline and citation blocks for a file, or
// ok=false when the preview has not completed yet. The outline is derived
// once per cached preview and reused until that preview is replaced.
func (c *Cache) Outline(fileID int64) (*outline.Outline, []engine.TaggedBlock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.outlines[fileID]; ok {
		return d.outline, d.citations, true
	}
	p, ok := c.previews.Get(fileID)
	if !ok {
		return nil, nil, false
	}
	d := derived{outline: outline.Build(p.Headings), citations: p.Citations}
	c.outlines[fileID] = d
	return d.outline, d.citations, true
}

// Loaded reports whether a completed preview exists for the file.
func (c *Cache) Loaded(fileID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previews.Contains(fileID)
}

// Preview returns the raw cached preview, if completed.
func (c *Cache) Preview(fileID int64) (*engine.FilePreview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previews.Get(fileID)
}

// Request starts a fetch for the file unless one is cached or already in
// flight. It returns immediately; completion is reported through the batched
// notify callback.
func (c *Cache) Request(ctx context.Context, fileID int64) {
	c.mu.Lock()
	if c.previews.Contains(fileID) || c.pending[fileID] {
		c.mu.Unlock()
		return
	}
	c.pending[fileID] = true
	c.mu.Unlock()

	go func() {
		p, err := c.fetch(ctx, fileID)
		c.mu.Lock()
		delete(c.pending, fileID)
		if err != nil {
			c.mu.Unlock()
			c.log.Warn().Int64("file_id", fileID).Err(err).Msg("preview fetch failed")
			return
		}
		c.store(fileID, p)
		c.mu.Unlock()
	}()
}

// Put stores an already-fetched preview, replacing any cached one and
// dropping its derived outline.
func (c *Cache) Put(fileID int64, p *engine.FilePreview) {
	c.mu.Lock()
	c.store(fileID, p)
	c.mu.Unlock()
}

// store must be called with mu held.
func (c *Cache) store(fileID int64, p *engine.FilePreview) {
	delete(c.outlines, fileID)
	c.previews.Add(fileID, p)
	c.batch = append(c.batch, fileID)
	if c.timer == nil {
		c.timer = time.AfterFunc(flushAfter, c.flush)
	}
}

func (c *Cache) flush() {
	c.mu.Lock()
	ids := c.batch
	c.batch = nil
	c.timer = nil
	c.mu.Unlock()

	if len(ids) > 0 && c.notify != nil {
		c.notify(ids)
	}
}

// Invalidate drops the cached preview (and its derived outline) for one
// file, forcing the next access to refetch.
func (c *Cache) Invalidate(fileID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previews.Remove(fileID)
}

// Reset discards every cached preview, derived outline, and pending batch.
// Used on root switch. In-flight fetches complete into the fresh cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previews.Purge()
	c.outlines = make(map[int64]derived)
	c.batch = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
