package vlist

import "testing"

func TestComputeBasics(t *testing.T) {
	cases := []struct {
		name                                    string
		total, stride, scroll, height, overscan int
		wantStart, wantEnd                      int
	}{
		{"top of list", 100, 10, 0, 50, 2, 0, 7},
		{"mid list", 100, 10, 200, 50, 2, 18, 27},
		{"end of list", 100, 10, 950, 50, 2, 93, 100},
		{"zero viewport", 100, 10, 200, 0, 2, 18, 22},
		{"zero total", 0, 10, 200, 50, 2, 0, 0},
		{"negative scroll", 100, 10, -30, 50, 2, 0, 7},
		{"tiny list", 3, 10, 0, 500, 5, 0, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := Compute(tc.total, tc.stride, tc.scroll, tc.height, tc.overscan)
			if w.Start != tc.wantStart || w.End != tc.wantEnd {
				t.Fatalf("window = [%d,%d), want [%d,%d)", w.Start, w.End, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestComputeInvariants(t *testing.T) {
	const stride = 8
	for total := 0; total <= 60; total += 15 {
		for scroll := 0; scroll <= total*stride+40; scroll += 13 {
			for height := 0; height <= 90; height += 30 {
				for overscan := 0; overscan <= 4; overscan += 2 {
					w := Compute(total, stride, scroll, height, overscan)
					if w.Start < 0 || w.Start > w.End || w.End > total {
						t.Fatalf("bounds violated: total=%d scroll=%d height=%d overscan=%d window=%+v",
							total, scroll, height, overscan, w)
					}
					if total > 0 {
						sum := w.TopSpacer + (w.End-w.Start)*stride + w.BottomSpacer
						if sum != total*stride {
							t.Fatalf("spacer sum %d != %d: window=%+v", sum, total*stride, w)
						}
					}
				}
			}
		}
	}
}
