package outline

import (
	"testing"

	"folio/internal/engine"
)

func h(order int64, level int, text string) engine.FileHeading {
	return engine.FileHeading{ID: order, Order: order, Level: level, Text: text}
}

func TestBuildDepthsAndChildren(t *testing.T) {
	o := Build([]engine.FileHeading{
		h(1, 1, "A"),
		h(2, 2, "B"),
		h(3, 2, "C"),
		h(4, 1, "D"),
	})

	wantDepth := []int{0, 1, 1, 0}
	wantChildren := []bool{true, false, false, false}
	for i, n := range o.Nodes {
		if n.Depth != wantDepth[i] {
			t.Errorf("node %s: depth = %d, want %d", n.Heading.Text, n.Depth, wantDepth[i])
		}
		if n.HasChildren != wantChildren[i] {
			t.Errorf("node %s: hasChildren = %v, want %v", n.Heading.Text, n.HasChildren, wantChildren[i])
		}
	}

	b, ok := o.ByOrder(2)
	if !ok {
		t.Fatalf("B not found by order")
	}
	if len(b.Ancestors) != 2 || b.Ancestors[0].Heading.Text != "A" || b.Ancestors[1].Heading.Text != "B" {
		t.Fatalf("B ancestor chain wrong: %v", chainTexts(b))
	}

	d, _ := o.ByOrder(4)
	if len(d.Ancestors) != 1 {
		t.Fatalf("D should have no parent, chain %v", chainTexts(d))
	}
}

func TestBuildStructuralNesting(t *testing.T) {
	// A level-1 heading directly followed by a level-4 heading nests the
	// latter at depth 1, not 3.
	o := Build([]engine.FileHeading{
		h(1, 1, "top"),
		h(2, 4, "deep"),
		h(3, 3, "shallower"),
		h(4, 4, "under shallower"),
	})

	wantDepth := []int{0, 1, 1, 2}
	for i, n := range o.Nodes {
		if n.Depth != wantDepth[i] {
			t.Errorf("node %s: depth = %d, want %d", n.Heading.Text, n.Depth, wantDepth[i])
		}
	}

	top, _ := o.ByOrder(1)
	if !top.HasChildren {
		t.Errorf("top should have children")
	}
	shallower, _ := o.ByOrder(3)
	if !shallower.HasChildren {
		t.Errorf("shallower should have children")
	}
}

func TestBuildSortsByOrder(t *testing.T) {
	input := []engine.FileHeading{
		h(4, 1, "D"),
		h(1, 1, "A"),
		h(3, 2, "C"),
		h(2, 2, "B"),
	}
	o := Build(input)

	var orders []int64
	for _, n := range o.Nodes {
		orders = append(orders, n.Heading.Order)
	}
	for i := 1; i < len(orders); i++ {
		if orders[i] <= orders[i-1] {
			t.Fatalf("nodes not ascending by order: %v", orders)
		}
	}

	// Input must not be reordered.
	if input[0].Order != 4 {
		t.Fatalf("input slice was mutated")
	}
}

func TestByLevelTextFirstOccurrenceWins(t *testing.T) {
	o := Build([]engine.FileHeading{
		h(1, 1, "Intro"),
		h(2, 2, "Methods"),
		h(3, 1, "Intro"),
	})

	n, ok := o.ByLevelText(1, "Intro")
	if !ok {
		t.Fatalf("Intro not found")
	}
	if n.Heading.Order != 1 {
		t.Fatalf("duplicate (level,text) resolved to order %d, want 1", n.Heading.Order)
	}
}

func TestBuildEmpty(t *testing.T) {
	o := Build(nil)
	if o.Len() != 0 {
		t.Fatalf("empty outline has %d nodes", o.Len())
	}
	if _, ok := o.ByOrder(1); ok {
		t.Fatalf("lookup on empty outline succeeded")
	}
}

func chainTexts(n *Node) []string {
	var out []string
	for _, a := range n.Ancestors {
		out = append(out, a.Heading.Text)
	}
	return out
}
