// Package searchctl coordinates in-flight search requests. Local engine
// queries cannot be aborted, so a monotonically increasing sequence number
// decides which response is applied; remote requests additionally carry a
// real abort signal through their context.
package searchctl

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Debounce is how long keystrokes settle before a search is issued.
const Debounce = 200 * time.Millisecond

// maxQueryChars caps query length in characters, applied before normalizing.
const maxQueryChars = 512

// Controller tags every issued search with a sequence number. Only the
// response matching the latest issued number may be applied; stale responses
// are dropped at completion time.
type Controller struct {
	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

// Begin registers a new search generation. It aborts the previous remote
// request and returns the context for the new one plus its sequence number.
func (c *Controller) Begin(parent context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.latest++
	return ctx, c.latest
}

// Accept reports whether a completed response with the given sequence number
// is still the latest and may be applied.
func (c *Controller) Accept(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.latest
}

// Reset aborts any in-flight remote request and invalidates every issued
// sequence number.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.latest++
}

// Normalize lowercases the query, collapses every non-alphanumeric run to a
// single space, and caps the length at maxQueryChars characters, never
// splitting a rune. Mirrors what the engine's lexical layer expects.
func Normalize(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	prevSpace := false
	chars := 0
	for _, r := range query {
		if chars >= maxQueryChars {
			break
		}
		chars++
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			prevSpace = false
			b.WriteRune(unicode.ToLower(r))
		case !prevSpace:
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
