package rows

import (
	"fmt"

	"folio/internal/engine"
	"folio/internal/outline"
	"folio/internal/snapshot"
)

// SearchInput is everything the search-mode projector reads. Hits arrive in
// relevance order and the projection preserves that ranking: the first hit to
// reach an entity wins its row position.
type SearchInput struct {
	Index  *snapshot.Index
	Exp    Expansion
	Source PreviewSource

	Hits []engine.SearchHit
	// FileNameOnly flattens a matched file's entire outline and citation
	// list under it, ignoring heading collapse state.
	FileNameOnly bool

	// Remote holds the external tag-search block appended after local hits.
	Remote        []engine.RemoteTagHit
	RemoteEnabled bool
}

// fileCtx is the cached placement of one file in search mode: its depth
// implied by the folder ancestor chain, and whether every ancestor folder is
// expanded so the file itself may surface.
type fileCtx struct {
	depth     int
	reachable bool
}

// ProjectSearch renders ranked hits in input order, each shown in its folder
// context, followed by the remote tag-result block.
func ProjectSearch(in SearchInput) Projection {
	p := &projector{source: in.Source}
	ctxs := make(map[int64]fileCtx)

	for i := range in.Hits {
		hit := &in.Hits[i]
		fc := p.contextualize(in, hit, ctxs)
		if !fc.reachable {
			// Ancestor folder rows were still emitted above; the file and
			// anything under it stay hidden while an ancestor is collapsed.
			continue
		}

		if in.FileNameOnly {
			p.flattenFile(hit.FileID, fc)
			continue
		}
		if hit.Kind == engine.HitKindFile {
			continue // the file row from contextualize is the match
		}
		p.searchHeading(in, hit, fc)
	}

	if in.RemoteEnabled {
		p.remoteBlock(in)
	}

	return p.done()
}

// contextualize emits the folder chain (always) and the file row (only when
// every ancestor folder is expanded), caching the result per file id.
func (p *projector) contextualize(in SearchInput, hit *engine.SearchHit, ctxs map[int64]fileCtx) fileCtx {
	if fc, ok := ctxs[hit.FileID]; ok {
		return fc
	}

	var chain []string
	label := hit.FileName
	if file, ok := in.Index.File(hit.FileID); ok {
		chain = in.Index.Ancestors(file.FolderPath)
		label = file.FileName
	}

	fc := fileCtx{depth: len(chain), reachable: true}
	for i, path := range chain {
		folder, _ := in.Index.Folder(path)
		p.emit(&Row{
			Key:         searchKey(folderKey(path)),
			Kind:        KindFolder,
			Depth:       i,
			Label:       folder.Name,
			SubLabel:    fmt.Sprintf("%d files", folder.FileCount),
			FolderPath:  path,
			HasChildren: true,
		})
		if !in.Exp.FolderExpanded(path) {
			fc.reachable = false
		}
	}

	if fc.reachable {
		row := &Row{
			Key:         searchKey(fileKey(hit.FileID)),
			Kind:        KindFile,
			Depth:       fc.depth,
			Label:       label,
			SubLabel:    hit.RelativePath,
			FileID:      hit.FileID,
			HasChildren: true,
		}
		if hit.Kind == engine.HitKindFile {
			row.Hit = hit
		}
		p.emit(row)
	}

	ctxs[hit.FileID] = fc
	return fc
}

// flattenFile shows a matched file's whole outline and citation list,
// ignoring collapse state. Used in filename-only search mode.
func (p *projector) flattenFile(fileID int64, fc fileCtx) {
	o, cites, loaded := p.source.Outline(fileID)
	if !loaded {
		p.markMissing(fileID)
		p.emit(&Row{
			Key:    searchKey(loadingKey(fileID)),
			Kind:   KindLoading,
			Depth:  fc.depth + 1,
			Label:  "Loading…",
			FileID: fileID,
		})
		return
	}
	for _, node := range o.Nodes {
		r := headingRow(fileID, node, fc.depth+1)
		r.Key = searchKey(r.Key)
		p.emit(r)
	}
	for _, c := range cites {
		r := citationRow(fileID, c, fc.depth+1)
		r.Key = searchKey(r.Key)
		p.emit(r)
	}
}

// searchHeading resolves a heading/author hit against the file's outline and
// shows the match with its full ancestor chain. Unresolvable hits degrade to
// a single shallow row built from the hit's own fields.
func (p *projector) searchHeading(in SearchInput, hit *engine.SearchHit, fc fileCtx) {
	o, _, loaded := p.source.Outline(hit.FileID)
	if !loaded {
		p.markMissing(hit.FileID)
		p.emit(&Row{
			Key:    searchKey(loadingKey(hit.FileID)),
			Kind:   KindLoading,
			Depth:  fc.depth + 1,
			Label:  "Loading…",
			FileID: hit.FileID,
		})
		return
	}

	node, ok := resolveHit(o, hit)
	if !ok {
		kind := KindHeading
		if hit.Kind == engine.HitKindAuthor {
			kind = KindAuthor
		}
		label := hit.HeadingText
		if label == "" {
			label = hit.FileName
		}
		p.emit(&Row{
			Key: searchKey(fmt.Sprintf("miss:%d:%s:%d:%s",
				hit.FileID, hit.Kind, hit.HeadingOrder, hit.HeadingText)),
			Kind:         kind,
			Depth:        fc.depth + 1,
			Label:        label,
			FileID:       hit.FileID,
			HeadingLevel: hit.HeadingLevel,
			HeadingOrder: hit.HeadingOrder,
			Hit:          hit,
		})
		return
	}

	for _, anc := range node.Ancestors {
		r := headingRow(hit.FileID, anc, fc.depth+1)
		r.Key = searchKey(r.Key)
		if anc == node {
			r.Hit = hit
		}
		p.emit(r)
	}
}

func resolveHit(o *outline.Outline, hit *engine.SearchHit) (*outline.Node, bool) {
	if hit.HasHeading {
		if node, ok := o.ByOrder(hit.HeadingOrder); ok {
			return node, true
		}
	}
	if hit.HeadingText != "" && hit.HeadingLevel > 0 {
		if node, ok := o.ByLevelText(hit.HeadingLevel, hit.HeadingText); ok {
			return node, true
		}
	}
	return nil, false
}

// remoteBlock appends the external tag-search result set: one summary folder
// row, then — only when expanded — one row per remote hit.
func (p *projector) remoteBlock(in SearchInput) {
	p.emit(&Row{
		Key:         RemoteFolderKey,
		Kind:        KindFolder,
		Depth:       0,
		Label:       "Tag matches",
		SubLabel:    fmt.Sprintf("%d matches", len(in.Remote)),
		HasChildren: len(in.Remote) > 0,
	})
	if !in.Exp.RemoteExpanded {
		return
	}
	for _, rh := range in.Remote {
		p.emit(&Row{
			Key:          remoteHitKey(rh.ID),
			Kind:         KindCitation,
			Depth:        1,
			Label:        rh.Citation,
			SubLabel:     rh.Tag,
			CopyText:     rh.CopyText,
			SourcePath:   rh.SourcePath,
			RichHTML:     rh.RichHTML,
			ParagraphXML: rh.ParagraphXML,
		})
	}
}
