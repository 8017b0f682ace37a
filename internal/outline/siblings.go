package outline

import "folio/internal/engine"

// MoveHint holds the reorder targets for one heading. A "move up" swaps
// (PrevSibling, this); a "move down" swaps (this, NextSibling). Absent
// siblings are reported through the Has flags.
type MoveHint struct {
	Order          int64
	PrevSibling    int64
	NextSibling    int64
	HasPrevSibling bool
	HasNextSibling bool
}

type bucketKey struct {
	parentOrder int64
	hasParent   bool
	level       int
}

// MoveHints groups one document's headings into sibling buckets (same
// immediate parent, same level) and records each heading's previous and next
// sibling order. Bucket membership shifts on every add/delete/move, so the
// result must be recomputed rather than patched.
func MoveHints(headings []engine.FileHeading) map[int64]MoveHint {
	o := Build(headings)

	buckets := make(map[bucketKey][]*Node)
	var bucketOrder []bucketKey
	for _, n := range o.Nodes {
		key := bucketKey{level: n.Heading.Level}
		if len(n.Ancestors) > 1 {
			parent := n.Ancestors[len(n.Ancestors)-2]
			key.parentOrder = parent.Heading.Order
			key.hasParent = true
		}
		if _, seen := buckets[key]; !seen {
			bucketOrder = append(bucketOrder, key)
		}
		buckets[key] = append(buckets[key], n)
	}

	hints := make(map[int64]MoveHint, len(o.Nodes))
	for _, key := range bucketOrder {
		siblings := buckets[key]
		for i, n := range siblings {
			hint := MoveHint{Order: n.Heading.Order}
			if i > 0 {
				hint.PrevSibling = siblings[i-1].Heading.Order
				hint.HasPrevSibling = true
			}
			if i < len(siblings)-1 {
				hint.NextSibling = siblings[i+1].Heading.Order
				hint.HasNextSibling = true
			}
			hints[n.Heading.Order] = hint
		}
	}
	return hints
}
