package rows

import (
	"fmt"

	"folio/internal/engine"
	"folio/internal/snapshot"
)

// RootLabel is the display label of the snapshot's root folder row.
const RootLabel = "Library"

// BrowseInput is everything the browse-mode projector reads.
type BrowseInput struct {
	Index  *snapshot.Index
	Exp    Expansion
	Source PreviewSource
}

// ProjectBrowse walks the folder tree from the root and emits one row per
// visible folder, file, heading, and citation block. An absent index yields
// an empty projection.
func ProjectBrowse(in BrowseInput) Projection {
	p := &projector{source: in.Source}
	if in.Index == nil {
		return p.done()
	}
	p.browseFolder(in, "", 0)
	return p.done()
}

// projector accumulates rows and missing preview ids for one pass.
type projector struct {
	source  PreviewSource
	rows    []*Row
	missing []int64
	seen    map[string]bool
}

func (p *projector) emit(r *Row) bool {
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	if p.seen[r.Key] {
		return false
	}
	p.seen[r.Key] = true
	p.rows = append(p.rows, r)
	return true
}

func (p *projector) markMissing(fileID int64) {
	for _, id := range p.missing {
		if id == fileID {
			return
		}
	}
	p.missing = append(p.missing, fileID)
}

func (p *projector) done() Projection {
	return Projection{Rows: p.rows, Missing: p.missing}
}

func (p *projector) browseFolder(in BrowseInput, path string, depth int) {
	folder, ok := in.Index.Folder(path)
	if !ok && path != "" {
		return
	}

	label := folder.Name
	subLabel := fmt.Sprintf("%d files", folder.FileCount)
	if path == "" {
		label = RootLabel
		subLabel = in.Index.RootPath
	}
	p.emit(&Row{
		Key:         folderKey(path),
		Kind:        KindFolder,
		Depth:       depth,
		Label:       label,
		SubLabel:    subLabel,
		FolderPath:  path,
		HasChildren: len(in.Index.ChildFolders(path)) > 0 || len(in.Index.Files(path)) > 0,
	})

	if !in.Exp.FolderExpanded(path) {
		return
	}

	for _, child := range in.Index.ChildFolders(path) {
		p.browseFolder(in, child.Path, depth+1)
	}
	for _, file := range in.Index.Files(path) {
		p.browseFile(in, file, depth+1)
	}
}

func (p *projector) browseFile(in BrowseInput, file engine.IndexedFile, depth int) {
	p.emit(&Row{
		Key:         fileKey(file.ID),
		Kind:        KindFile,
		Depth:       depth,
		Label:       file.FileName,
		SubLabel:    fmt.Sprintf("%d headings", file.HeadingCount),
		FolderPath:  file.FolderPath,
		FileID:      file.ID,
		HasChildren: file.HeadingCount > 0,
	})

	if !in.Exp.FileExpanded(file.ID) {
		return
	}

	o, cites, loaded := p.source.Outline(file.ID)
	if !loaded {
		p.markMissing(file.ID)
		p.emit(&Row{
			Key:    loadingKey(file.ID),
			Kind:   KindLoading,
			Depth:  depth + 1,
			Label:  "Loading…",
			FileID: file.ID,
		})
		return
	}

	if o.Len() == 0 {
		p.emit(&Row{
			Key:    emptyKey(file.ID),
			Kind:   KindEmpty,
			Depth:  depth + 1,
			Label:  "No headings",
			FileID: file.ID,
		})
	}

	// Collapsed-chain rule: a heading whose own row is visible may still be
	// collapsed, which suppresses every deeper row under it.
	for _, node := range o.Nodes {
		suppressed := false
		for _, anc := range node.Ancestors[:len(node.Ancestors)-1] {
			if in.Exp.HeadingCollapsed(file.ID, anc.Heading.Order) {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}
		p.emit(headingRow(file.ID, node, depth+1))
	}

	// Citation blocks always follow the headings; heading collapse never
	// suppresses them.
	for _, c := range cites {
		p.emit(citationRow(file.ID, c, depth+1))
	}
}
