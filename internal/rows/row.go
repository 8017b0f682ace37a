// Package rows projects an index snapshot, per-document outlines, and search
// hits into the ordered, flat row list the renderer consumes. Projection is
// pure: both modes read their inputs without mutating them and emit every row
// under a key that is unique within one projection pass.
package rows

import (
	"folio/internal/engine"
	"folio/internal/outline"
)

// Kind classifies a row for the renderer.
type Kind string

const (
	KindFolder   Kind = "folder"
	KindFile     Kind = "file"
	KindHeading  Kind = "heading"
	KindCitation Kind = "citation"
	KindAuthor   Kind = "author"
	KindLoading  Kind = "loading"
	// KindEmpty is the "no headings" placeholder shown under a loaded
	// document with zero headings.
	KindEmpty Kind = "empty"
)

// Row is one renderable line. Key is unique within a single projection pass;
// the same logical entity maps to deterministic, mode-specific keys.
type Row struct {
	Key      string
	Kind     Kind
	Depth    int
	Label    string
	SubLabel string

	FolderPath   string
	FileID       int64
	HeadingLevel int
	HeadingOrder int64
	CopyText     string
	SourcePath   string
	RichHTML     string
	ParagraphXML []string
	HasChildren  bool

	// Hit is the search hit this row originates from, when any.
	Hit *engine.SearchHit
}

// Projection is the result of one projector pass.
type Projection struct {
	Rows []*Row
	// Missing lists file ids whose preview the projector needed but found
	// absent from the cache. The host triggers fetches for them; the
	// projector itself never awaits anything.
	Missing []int64
}

// PreviewSource exposes already-completed preview cache entries. A miss means
// the preview is not loaded yet, never an error.
type PreviewSource interface {
	Outline(fileID int64) (*outline.Outline, []engine.TaggedBlock, bool)
}

// Expansion carries the user's expand/collapse state. The zero value treats
// every folder and file as collapsed and every heading as expanded.
type Expansion struct {
	// Folders holds expanded folder paths, the root's empty path included.
	Folders map[string]bool
	// Files holds expanded file ids.
	Files map[int64]bool
	// Collapsed holds collapsed headings keyed by (file id, order).
	Collapsed map[HeadingKey]bool
	// RemoteExpanded opens the remote tag-result block in search mode.
	RemoteExpanded bool
}

// HeadingKey identifies one heading across documents.
type HeadingKey struct {
	FileID int64
	Order  int64
}

// FolderExpanded reports whether the folder at path is expanded.
func (e Expansion) FolderExpanded(path string) bool {
	return e.Folders[path]
}

// FileExpanded reports whether the file is expanded.
func (e Expansion) FileExpanded(id int64) bool {
	return e.Files[id]
}

// HeadingCollapsed reports whether the heading is collapsed.
func (e Expansion) HeadingCollapsed(fileID, order int64) bool {
	return e.Collapsed[HeadingKey{FileID: fileID, Order: order}]
}
