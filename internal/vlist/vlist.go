// Package vlist computes the visible slice of a fixed-stride row list so the
// renderer only materializes rows intersecting the scroll viewport.
package vlist

// Window describes the visible row range plus the spacer sizes that stand in
// for the rows above and below it.
type Window struct {
	Start        int
	End          int
	TopSpacer    int
	BottomSpacer int
}

// Compute returns the window for the given scroll state. stride is the fixed
// per-row height in pixels (or cells) and overscan the number of extra rows
// kept alive on each side. A zero viewport or zero total yields a safe empty
// range.
func Compute(total, stride, scrollOffset, viewportHeight, overscan int) Window {
	if total <= 0 || stride <= 0 {
		return Window{}
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if viewportHeight < 0 {
		viewportHeight = 0
	}

	start := scrollOffset/stride - overscan
	start = clamp(start, 0, total)

	end := ceilDiv(scrollOffset+viewportHeight, stride) + overscan
	end = clamp(end, start, total)

	return Window{
		Start:        start,
		End:          end,
		TopSpacer:    start * stride,
		BottomSpacer: (total - end) * stride,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
