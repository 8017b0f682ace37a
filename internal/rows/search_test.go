package rows

import (
	"testing"

	"folio/internal/engine"
)

func headingHit(fileID, order int64, level int, text string, score float64) engine.SearchHit {
	return engine.SearchHit{
		Source:       "lexical",
		Kind:         engine.HitKindHeading,
		FileID:       fileID,
		HeadingOrder: order,
		HeadingLevel: level,
		HeadingText:  text,
		HasHeading:   true,
		Score:        score,
	}
}

func fileHit(fileID int64, name, rel string) engine.SearchHit {
	return engine.SearchHit{
		Source:       "lexical",
		Kind:         engine.HitKindFile,
		FileID:       fileID,
		FileName:     name,
		RelativePath: rel,
	}
}

func TestProjectSearchHeadingInContext(t *testing.T) {
	p := ProjectSearch(SearchInput{
		Index:  testIndex(),
		Exp:    expandAll(),
		Source: testSource(),
		Hits:   []engine.SearchHit{headingHit(10, 2, 2, "B", 9.1)},
	})
	assertNoDuplicateKeys(t, p)
	assertKeys(t, p, []string{
		"search:folder:papers",
		"search:file:10",
		"search:heading:10:1",
		"search:heading:10:2",
	})

	// The matched heading row carries the hit; its ancestor does not.
	if p.Rows[3].Hit == nil || p.Rows[2].Hit != nil {
		t.Fatalf("hit attached to wrong row")
	}
	// Depth: folder 0, file 1, chain under the file.
	wantDepth := []int{0, 1, 2, 3}
	for i, r := range p.Rows {
		if r.Depth != wantDepth[i] {
			t.Errorf("row %s depth = %d, want %d", r.Key, r.Depth, wantDepth[i])
		}
	}
}

func TestProjectSearchRankingOrderPreserved(t *testing.T) {
	// Hits arrive in relevance order; the second hit's file appears after
	// the first even though it sorts earlier alphabetically.
	p := ProjectSearch(SearchInput{
		Index:  testIndex(),
		Exp:    expandAll(),
		Source: testSource(),
		Hits: []engine.SearchHit{
			headingHit(12, 1, 1, "Only", 9.9),
			headingHit(10, 4, 1, "D", 5.0),
			headingHit(10, 4, 1, "D", 4.0), // duplicate entity, first wins
		},
	})
	assertNoDuplicateKeys(t, p)
	assertKeys(t, p, []string{
		"search:folder:papers",
		"search:folder:papers/drafts",
		"search:file:12",
		"search:heading:12:1",
		"search:file:10",
		"search:heading:10:4",
	})
}

func TestProjectSearchCollapsedAncestorSuppressesFile(t *testing.T) {
	exp := expandAll()
	exp.Folders["papers/drafts"] = false

	p := ProjectSearch(SearchInput{
		Index:  testIndex(),
		Exp:    exp,
		Source: testSource(),
		Hits:   []engine.SearchHit{headingHit(12, 1, 1, "Only", 9.9)},
	})

	// Ancestor folder rows still surface even though the file stays hidden.
	assertKeys(t, p, []string{
		"search:folder:papers",
		"search:folder:papers/drafts",
	})
}

func TestProjectSearchFileNameOnlyFlattens(t *testing.T) {
	exp := expandAll()
	// Collapse a heading: filename-only mode ignores collapse state.
	exp.Collapsed[HeadingKey{FileID: 10, Order: 1}] = true

	p := ProjectSearch(SearchInput{
		Index:        testIndex(),
		Exp:          exp,
		Source:       testSource(),
		Hits:         []engine.SearchHit{fileHit(10, "alpha.docx", "papers/alpha.docx")},
		FileNameOnly: true,
	})
	assertNoDuplicateKeys(t, p)
	assertKeys(t, p, []string{
		"search:folder:papers",
		"search:file:10",
		"search:heading:10:1",
		"search:heading:10:2",
		"search:heading:10:3",
		"search:heading:10:4",
		"search:cite:10:9",
	})
}

func TestProjectSearchFallbackResolution(t *testing.T) {
	// Order no longer exists; level+text still resolves, first occurrence.
	hit := engine.SearchHit{
		Kind:         engine.HitKindHeading,
		FileID:       10,
		HeadingOrder: 999,
		HeadingLevel: 2,
		HeadingText:  "C",
		HasHeading:   true,
	}
	p := ProjectSearch(SearchInput{
		Index:  testIndex(),
		Exp:    expandAll(),
		Source: testSource(),
		Hits:   []engine.SearchHit{hit},
	})
	assertKeys(t, p, []string{
		"search:folder:papers",
		"search:file:10",
		"search:heading:10:1",
		"search:heading:10:3",
	})
}

func TestProjectSearchUnresolvedHitDegradesToShallowRow(t *testing.T) {
	hit := engine.SearchHit{
		Kind:         engine.HitKindAuthor,
		FileID:       10,
		FileName:     "alpha.docx",
		HeadingOrder: 999,
		HeadingLevel: 9,
		HeadingText:  "Nobody",
		HasHeading:   true,
	}
	p := ProjectSearch(SearchInput{
		Index:  testIndex(),
		Exp:    expandAll(),
		Source: testSource(),
		Hits:   []engine.SearchHit{hit},
	})

	last := p.Rows[len(p.Rows)-1]
	if last.Kind != KindAuthor || last.Label != "Nobody" || last.Hit == nil {
		t.Fatalf("unresolved hit should degrade to a shallow author row, got %+v", last)
	}
	if last.Depth != 2 {
		t.Fatalf("shallow row depth = %d, want 2", last.Depth)
	}
}

func TestProjectSearchLoadingRow(t *testing.T) {
	src := testSource()
	delete(src.headings, 10)

	p := ProjectSearch(SearchInput{
		Index:  testIndex(),
		Exp:    expandAll(),
		Source: src,
		Hits: []engine.SearchHit{
			headingHit(10, 2, 2, "B", 9.0),
			headingHit(10, 4, 1, "D", 8.0),
		},
	})

	var loadingRows int
	for _, r := range p.Rows {
		if r.Kind == KindLoading {
			loadingRows++
		}
	}
	if loadingRows != 1 {
		t.Fatalf("want exactly one loading row per file, got %d", loadingRows)
	}
	if len(p.Missing) != 1 || p.Missing[0] != 10 {
		t.Fatalf("missing = %v, want [10]", p.Missing)
	}
}

func TestProjectSearchRemoteBlock(t *testing.T) {
	remote := []engine.RemoteTagHit{
		{ID: "r1", Tag: "q8", Citation: "Jones 2019", ParagraphXML: []string{"<w:p/>"}},
		{ID: "r2", Tag: "q8", Citation: "Best 2021"},
	}

	collapsed := ProjectSearch(SearchInput{
		Index:         testIndex(),
		Exp:           expandAll(),
		Source:        testSource(),
		Remote:        remote,
		RemoteEnabled: true,
	})
	assertKeys(t, collapsed, []string{RemoteFolderKey})
	if collapsed.Rows[0].SubLabel != "2 matches" {
		t.Fatalf("remote summary = %q", collapsed.Rows[0].SubLabel)
	}

	exp := expandAll()
	exp.RemoteExpanded = true
	expanded := ProjectSearch(SearchInput{
		Index:         testIndex(),
		Exp:           exp,
		Source:        testSource(),
		Remote:        remote,
		RemoteEnabled: true,
	})
	assertKeys(t, expanded, []string{RemoteFolderKey, "search:remote:r1", "search:remote:r2"})
	if got := expanded.Rows[1].ParagraphXML; len(got) != 1 || got[0] != "<w:p/>" {
		t.Fatalf("remote row lost paragraph xml: %v", got)
	}
}
