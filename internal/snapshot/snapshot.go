// Package snapshot turns a raw index snapshot into fast lookup structures
// used by the row projector.
package snapshot

import (
	"sort"

	"folio/internal/engine"
)

// Index is the derived lookup view over one index snapshot. A nil *Index is
// valid and means "no snapshot yet".
type Index struct {
	RootPath string

	folderByPath   map[string]engine.FolderEntry
	childrenByPath map[string][]engine.FolderEntry
	filesByFolder  map[string][]engine.IndexedFile
	fileByID       map[int64]engine.IndexedFile
}

// Build derives lookup tables from snap. It never mutates the input. A nil
// snapshot yields a nil index.
func Build(snap *engine.IndexSnapshot) *Index {
	if snap == nil {
		return nil
	}

	idx := &Index{
		RootPath:       snap.RootPath,
		folderByPath:   make(map[string]engine.FolderEntry, len(snap.Folders)),
		childrenByPath: make(map[string][]engine.FolderEntry),
		filesByFolder:  make(map[string][]engine.IndexedFile),
		fileByID:       make(map[int64]engine.IndexedFile, len(snap.Files)),
	}

	for _, f := range snap.Folders {
		idx.folderByPath[f.Path] = f
		if f.Path != "" {
			idx.childrenByPath[f.ParentPath] = append(idx.childrenByPath[f.ParentPath], f)
		}
	}
	for _, children := range idx.childrenByPath {
		sort.Slice(children, func(i, j int) bool {
			return children[i].Name < children[j].Name
		})
	}

	for _, f := range snap.Files {
		idx.filesByFolder[f.FolderPath] = append(idx.filesByFolder[f.FolderPath], f)
		idx.fileByID[f.ID] = f
	}
	for _, files := range idx.filesByFolder {
		sort.Slice(files, func(i, j int) bool {
			return files[i].FileName < files[j].FileName
		})
	}

	return idx
}

// Folder returns the folder entry at path.
func (idx *Index) Folder(path string) (engine.FolderEntry, bool) {
	if idx == nil {
		return engine.FolderEntry{}, false
	}
	f, ok := idx.folderByPath[path]
	return f, ok
}

// ChildFolders returns the direct child folders of path, sorted by name.
func (idx *Index) ChildFolders(path string) []engine.FolderEntry {
	if idx == nil {
		return nil
	}
	return idx.childrenByPath[path]
}

// Files returns the files directly inside the folder at path, sorted by name.
func (idx *Index) Files(path string) []engine.IndexedFile {
	if idx == nil {
		return nil
	}
	return idx.filesByFolder[path]
}

// File returns the file with the given id.
func (idx *Index) File(id int64) (engine.IndexedFile, bool) {
	if idx == nil {
		return engine.IndexedFile{}, false
	}
	f, ok := idx.fileByID[id]
	return f, ok
}

// Ancestors returns the folder paths from the root (exclusive) down to path
// (inclusive). An empty path yields nil: the root is not its own ancestor.
// A parent-path cycle in a malformed snapshot terminates the chain rather
// than looping.
func (idx *Index) Ancestors(path string) []string {
	if idx == nil || path == "" {
		return nil
	}
	var chain []string
	visited := make(map[string]bool)
	for p := path; p != "" && !visited[p]; {
		visited[p] = true
		chain = append(chain, p)
		f, ok := idx.folderByPath[p]
		if !ok {
			break
		}
		p = f.ParentPath
	}
	// Collected leaf-first; reverse to root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
