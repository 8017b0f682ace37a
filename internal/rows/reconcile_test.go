package rows

import (
	"testing"

	"folio/internal/engine"
)

func projectFull() Projection {
	return ProjectBrowse(BrowseInput{Index: testIndex(), Exp: expandAll(), Source: testSource()})
}

func TestReconcileWholeListReuse(t *testing.T) {
	prev := projectFull().Rows
	next := projectFull().Rows

	got := Reconcile(prev, next)
	if len(got) != len(prev) {
		t.Fatalf("reconciled length %d, want %d", len(got), len(prev))
	}
	// Same content in same order: the previous slice itself comes back.
	if &got[0] != &prev[0] {
		t.Fatalf("identical projections should return the previous slice")
	}
}

func TestReconcilePreservesUnchangedRows(t *testing.T) {
	prev := projectFull().Rows

	exp := expandAll()
	exp.Collapsed[HeadingKey{FileID: 10, Order: 1}] = true
	next := ProjectBrowse(BrowseInput{Index: testIndex(), Exp: exp, Source: testSource()}).Rows

	got := Reconcile(prev, next)
	if len(got) != len(next) {
		t.Fatalf("reconciled length %d, want %d", len(got), len(next))
	}

	prevByKey := map[string]*Row{}
	for _, r := range prev {
		prevByKey[r.Key] = r
	}
	for _, r := range got {
		old, existed := prevByKey[r.Key]
		if existed && r != old {
			t.Errorf("row %q not identity-preserved", r.Key)
		}
	}
}

func TestReconcileReplacesChangedRows(t *testing.T) {
	prev := projectFull().Rows
	next := projectFull().Rows

	// Change one row's label; only it should lose identity.
	var changedKey string
	for _, r := range next {
		if r.Kind == KindHeading {
			r.Label = "renamed"
			changedKey = r.Key
			break
		}
	}

	got := Reconcile(prev, next)
	prevByKey := map[string]*Row{}
	for _, r := range prev {
		prevByKey[r.Key] = r
	}
	for _, r := range got {
		if r.Key == changedKey {
			if r == prevByKey[r.Key] {
				t.Fatalf("changed row %q kept stale identity", r.Key)
			}
			if r.Label != "renamed" {
				t.Fatalf("changed row lost new content")
			}
		} else if r != prevByKey[r.Key] {
			t.Fatalf("unchanged row %q lost identity", r.Key)
		}
	}
}

func TestReconcileComparesArrayFieldsElementwise(t *testing.T) {
	a := &Row{Key: "x", Kind: KindCitation, ParagraphXML: []string{"<w:p/>", "<w:r/>"}}
	b := &Row{Key: "x", Kind: KindCitation, ParagraphXML: []string{"<w:p/>", "<w:r/>"}}
	c := &Row{Key: "x", Kind: KindCitation, ParagraphXML: []string{"<w:p/>", "<w:t/>"}}

	if got := Reconcile([]*Row{a}, []*Row{b}); got[0] != a {
		t.Fatalf("equal array fields should preserve identity")
	}
	if got := Reconcile([]*Row{a}, []*Row{c}); got[0] != c {
		t.Fatalf("differing array fields should keep the new row")
	}
}

func TestReconcileComparesHitsByValue(t *testing.T) {
	hit1 := &engine.SearchHit{Kind: engine.HitKindHeading, FileID: 1, Score: 2}
	hit2 := &engine.SearchHit{Kind: engine.HitKindHeading, FileID: 1, Score: 2}
	hit3 := &engine.SearchHit{Kind: engine.HitKindHeading, FileID: 1, Score: 5}

	a := &Row{Key: "x", Kind: KindHeading, Hit: hit1}
	same := &Row{Key: "x", Kind: KindHeading, Hit: hit2}
	diff := &Row{Key: "x", Kind: KindHeading, Hit: hit3}

	if got := Reconcile([]*Row{a}, []*Row{same}); got[0] != a {
		t.Fatalf("equal hit values should preserve identity")
	}
	if got := Reconcile([]*Row{a}, []*Row{diff}); got[0] != diff {
		t.Fatalf("differing hit values should keep the new row")
	}
}
