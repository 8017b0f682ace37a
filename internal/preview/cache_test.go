package preview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/engine"
)

func previewFor(fileID int64, headingText string) *engine.FilePreview {
	return &engine.FilePreview{
		FileID: fileID,
		Headings: []engine.FileHeading{
			{ID: fileID * 100, Order: 1, Level: 1, Text: headingText},
		},
		Citations: []engine.TaggedBlock{{Order: 2, Text: "cited"}},
	}
}

// collector accumulates notify batches for assertions.
type collector struct {
	mu      sync.Mutex
	batches [][]int64
	signal  chan struct{}
}

func newCollector() *collector {
	return &collector{signal: make(chan struct{}, 16)}
}

func (c *collector) notify(ids []int64) {
	c.mu.Lock()
	c.batches = append(c.batches, ids)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *collector) wait(t *testing.T) [][]int64 {
	t.Helper()
	select {
	case <-c.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notify")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]int64, len(c.batches))
	copy(out, c.batches)
	return out
}

func TestCacheRequestFetchesOnce(t *testing.T) {
	var fetches atomic.Int64
	release := make(chan struct{})
	fetch := func(ctx context.Context, fileID int64) (*engine.FilePreview, error) {
		fetches.Add(1)
		<-release
		return previewFor(fileID, "Intro"), nil
	}
	col := newCollector()
	c := NewCache(fetch, col.notify, zerolog.Nop())

	for i := 0; i < 5; i++ {
		c.Request(context.Background(), 7)
	}
	close(release)
	col.wait(t)

	assert.Equal(t, int64(1), fetches.Load(), "concurrent requests share one fetch")
	assert.True(t, c.Loaded(7))
}

func TestCacheRequestSkipsLoaded(t *testing.T) {
	var fetches atomic.Int64
	fetch := func(ctx context.Context, fileID int64) (*engine.FilePreview, error) {
		fetches.Add(1)
		return previewFor(fileID, "Intro"), nil
	}
	c := NewCache(fetch, nil, zerolog.Nop())

	c.Put(7, previewFor(7, "Intro"))
	c.Request(context.Background(), 7)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, fetches.Load(), "loaded previews are not refetched")
}

func TestCacheFetchErrorLeavesNothingCached(t *testing.T) {
	fetch := func(ctx context.Context, fileID int64) (*engine.FilePreview, error) {
		return nil, errors.New("engine closed")
	}
	col := newCollector()
	c := NewCache(fetch, col.notify, zerolog.Nop())

	c.Request(context.Background(), 7)
	time.Sleep(20 * time.Millisecond)

	assert.False(t, c.Loaded(7))
	// The failed id must be requestable again.
	c.Request(context.Background(), 7)
	time.Sleep(20 * time.Millisecond)
	assert.False(t, c.Loaded(7))
}

func TestCacheOutlineDerivedOnceAndInvalidatedByPut(t *testing.T) {
	c := NewCache(nil, nil, zerolog.Nop())

	_, _, ok := c.Outline(7)
	require.False(t, ok, "no preview yet")

	c.Put(7, previewFor(7, "Intro"))
	o1, cites, ok := c.Outline(7)
	require.True(t, ok)
	require.Equal(t, 1, o1.Len())
	assert.Equal(t, "Intro", o1.Nodes[0].Heading.Text)
	assert.Len(t, cites, 1)

	o2, _, ok := c.Outline(7)
	require.True(t, ok)
	assert.Same(t, o1, o2, "derived outline is memoized")

	c.Put(7, previewFor(7, "Revised"))
	o3, _, ok := c.Outline(7)
	require.True(t, ok)
	assert.NotSame(t, o1, o3, "replacement preview drops the stale outline")
	assert.Equal(t, "Revised", o3.Nodes[0].Heading.Text)
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(nil, nil, zerolog.Nop())
	c.Put(7, previewFor(7, "Intro"))
	require.True(t, c.Loaded(7))

	c.Invalidate(7)
	assert.False(t, c.Loaded(7))
	_, _, ok := c.Outline(7)
	assert.False(t, ok, "invalidation drops the derived outline too")
}

func TestCacheReset(t *testing.T) {
	c := NewCache(nil, nil, zerolog.Nop())
	c.Put(1, previewFor(1, "A"))
	c.Put(2, previewFor(2, "B"))

	c.Reset()
	assert.False(t, c.Loaded(1))
	assert.False(t, c.Loaded(2))
	_, _, ok := c.Outline(1)
	assert.False(t, ok)
}

func TestCacheBatchesNotifications(t *testing.T) {
	col := newCollector()
	c := NewCache(nil, col.notify, zerolog.Nop())

	c.Put(1, previewFor(1, "A"))
	c.Put(2, previewFor(2, "B"))
	c.Put(3, previewFor(3, "C"))

	batches := col.wait(t)
	require.Len(t, batches, 1, "completions inside the flush window coalesce")
	assert.ElementsMatch(t, []int64{1, 2, 3}, batches[0])
}
