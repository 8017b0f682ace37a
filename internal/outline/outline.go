// Package outline reconstructs per-document heading hierarchy from a flat,
// order-annotated heading list. Nesting is purely structural: a level-1
// heading directly followed by a level-4 heading nests the latter at depth 1,
// not 3, and malformed level sequences never fail.
package outline

import (
	"sort"

	"folio/internal/engine"
)

// Node is one heading with its derived position in the hierarchy.
type Node struct {
	Heading     engine.FileHeading
	Depth       int
	HasChildren bool
	// Ancestors is the chain from the root-most open ancestor down to this
	// node itself, in document order.
	Ancestors []*Node
}

// Outline is the derived hierarchy of one document's headings.
type Outline struct {
	// Nodes holds every heading in ascending order.
	Nodes []*Node

	byOrder     map[int64]*Node
	byLevelText map[levelText]*Node
}

type levelText struct {
	level int
	text  string
}

// Build derives an outline from headings, which may arrive in any order.
// The input slice is never mutated.
func Build(headings []engine.FileHeading) *Outline {
	sorted := make([]engine.FileHeading, len(headings))
	copy(sorted, headings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	o := &Outline{
		Nodes:       make([]*Node, 0, len(sorted)),
		byOrder:     make(map[int64]*Node, len(sorted)),
		byLevelText: make(map[levelText]*Node, len(sorted)),
	}

	// Stack of currently open ancestors.
	var stack []*Node
	for _, h := range sorted {
		for len(stack) > 0 && stack[len(stack)-1].Heading.Level >= h.Level {
			stack = stack[:len(stack)-1]
		}

		node := &Node{Heading: h, Depth: len(stack)}
		if len(stack) > 0 {
			stack[len(stack)-1].HasChildren = true
		}
		stack = append(stack, node)

		node.Ancestors = make([]*Node, len(stack))
		copy(node.Ancestors, stack)

		o.Nodes = append(o.Nodes, node)
		o.byOrder[h.Order] = node
		key := levelText{level: h.Level, text: h.Text}
		if _, seen := o.byLevelText[key]; !seen {
			o.byLevelText[key] = node
		}
	}

	return o
}

// ByOrder returns the node whose heading has the given order value.
func (o *Outline) ByOrder(order int64) (*Node, bool) {
	n, ok := o.byOrder[order]
	return n, ok
}

// ByLevelText returns the first heading with the given level and text.
// Duplicate (level, text) pairs resolve to the earliest occurrence.
func (o *Outline) ByLevelText(level int, text string) (*Node, bool) {
	n, ok := o.byLevelText[levelText{level: level, text: text}]
	return n, ok
}

// Len returns the heading count.
func (o *Outline) Len() int {
	return len(o.Nodes)
}
