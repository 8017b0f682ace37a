package engine

import "context"

// Engine is the native indexing/search collaborator. The view pipeline never
// fetches data on its own; everything it consumes arrives through this
// interface.
type Engine interface {
	// Snapshot returns the current index snapshot, or nil when no root has
	// been indexed yet. A nil snapshot is not an error.
	Snapshot(ctx context.Context) (*IndexSnapshot, error)
	// FilePreview fetches the headings and citation blocks of one document.
	FilePreview(ctx context.Context, fileID int64) (*FilePreview, error)
	// Search runs a ranked hybrid query. When fileNameOnly is set, only
	// file-kind hits are returned.
	Search(ctx context.Context, query string, fileNameOnly bool, limit int) ([]SearchHit, error)
	// Reorder swaps two headings of one document, identified by their order
	// values. Callers obtain valid (source, target) pairs from the sibling
	// move-hint calculator.
	Reorder(ctx context.Context, fileID, sourceOrder, targetOrder int64) error
	// Close releases underlying resources.
	Close() error
}
