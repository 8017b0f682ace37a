// Package store implements the engine interface on top of the index
// database: SQLite with FTS5 for lexical search and sqlite-vec for semantic
// heading search. The browse side reads snapshots and previews; the ingest
// pipeline writes files, headings, citations, and embeddings.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"folio/internal/embedder"
	"folio/internal/engine"
	"folio/internal/searchctl"
)

func init() {
	sqlite_vec.Auto()
}

// Store is the SQLite-backed engine. Semantic search participates only when
// an embedder is configured; otherwise search is lexical only.
type Store struct {
	db  *sql.DB
	emb *embedder.Embedder
	log zerolog.Logger
}

var _ engine.Engine = (*Store)(nil)

// Open creates or opens the index database at dbPath and initializes the
// schema. emb may be nil to disable the semantic search half.
func Open(dbPath string, emb *embedder.Embedder, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, schemaErr(err)
	}
	return &Store{db: db, emb: emb, log: log}, nil
}

// schemaErr points at the required build tag when the fts5 module is absent;
// go-sqlite3 compiles without it by default.
func schemaErr(err error) error {
	if strings.Contains(err.Error(), "no such module: fts5") {
		return fmt.Errorf("init schema (rebuild with -tags sqlite_fts5): %w", err)
	}
	return fmt.Errorf("init schema: %w", err)
}

// Snapshot returns the indexed folder/file listing, or nil when no root has
// been indexed yet.
func (s *Store) Snapshot(ctx context.Context) (*engine.IndexSnapshot, error) {
	var rootPath string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'root_path'").Scan(&rootPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read root path: %w", err)
	}

	snap := &engine.IndexSnapshot{RootPath: rootPath}

	rows, err := s.db.QueryContext(ctx, "SELECT path, name, parent_path, file_count FROM folders")
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f engine.FolderEntry
		if err := rows.Scan(&f.Path, &f.Name, &f.ParentPath, &f.FileCount); err != nil {
			return nil, err
		}
		snap.Folders = append(snap.Folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fileRows, err := s.db.QueryContext(ctx,
		"SELECT id, file_name, folder_path, relative_path, heading_count FROM files")
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer fileRows.Close()
	for fileRows.Next() {
		var f engine.IndexedFile
		if err := fileRows.Scan(&f.ID, &f.FileName, &f.FolderPath, &f.RelativePath, &f.HeadingCount); err != nil {
			return nil, err
		}
		snap.Files = append(snap.Files, f)
	}
	return snap, fileRows.Err()
}

// FilePreview fetches one document's headings and citation blocks.
func (s *Store) FilePreview(ctx context.Context, fileID int64) (*engine.FilePreview, error) {
	p := &engine.FilePreview{FileID: fileID}

	err := s.db.QueryRowContext(ctx, "SELECT absolute_path FROM files WHERE id = ?", fileID).
		Scan(&p.AbsolutePath)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("file %d not in index", fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("query file %d: %w", fileID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, ord, level, text, copy_text FROM headings WHERE file_id = ? ORDER BY ord", fileID)
	if err != nil {
		return nil, fmt.Errorf("query headings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h engine.FileHeading
		if err := rows.Scan(&h.ID, &h.Order, &h.Level, &h.Text, &h.CopyText); err != nil {
			return nil, err
		}
		p.Headings = append(p.Headings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	citeRows, err := s.db.QueryContext(ctx,
		"SELECT ord, text, style_label FROM citations WHERE file_id = ? ORDER BY ord", fileID)
	if err != nil {
		return nil, fmt.Errorf("query citations: %w", err)
	}
	defer citeRows.Close()
	for citeRows.Next() {
		var c engine.TaggedBlock
		if err := citeRows.Scan(&c.Order, &c.Text, &c.StyleLabel); err != nil {
			return nil, err
		}
		p.Citations = append(p.Citations, c)
	}
	return p, citeRows.Err()
}

// Search runs the hybrid query: FTS5 lexical matches first, then semantic
// heading matches, deduplicated with lexical hits winning.
func (s *Store) Search(ctx context.Context, query string, fileNameOnly bool, limit int) ([]engine.SearchHit, error) {
	normalized := searchctl.Normalize(query)
	if normalized == "" {
		return nil, nil
	}

	lexical, err := s.lexicalSearch(ctx, normalized, fileNameOnly, limit)
	if err != nil {
		return nil, err
	}

	var semantic []engine.SearchHit
	if s.emb != nil && !fileNameOnly {
		semantic, err = s.semanticSearch(ctx, query, limit)
		if err != nil {
			// Semantic failures are non-fatal; lexical results still serve.
			s.log.Warn().Err(err).Msg("semantic search failed")
			semantic = nil
		}
	}

	type hitKey struct {
		kind   string
		fileID int64
		order  int64
	}
	seen := make(map[hitKey]bool)
	merged := make([]engine.SearchHit, 0, len(lexical)+len(semantic))
	for _, h := range append(lexical, semantic...) {
		k := hitKey{kind: h.Kind, fileID: h.FileID, order: h.HeadingOrder}
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, h)
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (s *Store) lexicalSearch(ctx context.Context, normalized string, fileNameOnly bool, limit int) ([]engine.SearchHit, error) {
	match := ftsMatchExpr(normalized)
	q := `
		SELECT s.kind, s.file_id, s.heading_order, s.heading_level, s.text,
		       f.file_name, f.relative_path, f.absolute_path, bm25(search_fts)
		FROM search_fts s
		JOIN files f ON f.id = s.file_id
		WHERE search_fts MATCH ?`
	if fileNameOnly {
		q += " AND s.kind = 'file'"
	}
	q += " ORDER BY bm25(search_fts) LIMIT ?"

	rows, err := s.db.QueryContext(ctx, q, match, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()

	var hits []engine.SearchHit
	for rows.Next() {
		var (
			h    engine.SearchHit
			rank float64
		)
		if err := rows.Scan(&h.Kind, &h.FileID, &h.HeadingOrder, &h.HeadingLevel, &h.HeadingText,
			&h.FileName, &h.RelativePath, &h.AbsolutePath, &rank); err != nil {
			return nil, err
		}
		h.Source = "lexical"
		h.Score = -rank // bm25 reports better matches as smaller values
		h.HasHeading = h.Kind != engine.HitKindFile && h.Kind != engine.HitKindAuthor
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *Store) semanticSearch(ctx context.Context, query string, limit int) ([]engine.SearchHit, error) {
	vec, err := s.emb.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.distance, h.file_id, h.ord, h.level, h.text,
		       f.file_name, f.relative_path, f.absolute_path
		FROM vec_headings v
		JOIN headings h ON h.id = v.heading_id
		JOIN files f ON f.id = h.file_id
		WHERE v.embedding MATCH ?
		ORDER BY v.distance
		LIMIT ?
	`, blob, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []engine.SearchHit
	for rows.Next() {
		var (
			h        engine.SearchHit
			distance float64
		)
		if err := rows.Scan(&distance, &h.FileID, &h.HeadingOrder, &h.HeadingLevel, &h.HeadingText,
			&h.FileName, &h.RelativePath, &h.AbsolutePath); err != nil {
			return nil, err
		}
		h.Source = "semantic"
		h.Kind = engine.HitKindHeading
		h.HasHeading = true
		h.Score = 1 / (1 + distance)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Reorder swaps the order values of two headings in one document. The swap
// runs through a sentinel value so the (file_id, ord) uniqueness holds at
// every step.
func (s *Store) Reorder(ctx context.Context, fileID, sourceOrder, targetOrder int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE headings SET ord = -1 WHERE file_id = ? AND ord = ?", fileID, sourceOrder)
	if err != nil {
		return fmt.Errorf("stage reorder: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("heading %d not found in file %d", sourceOrder, fileID)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE headings SET ord = ? WHERE file_id = ? AND ord = ?", sourceOrder, fileID, targetOrder); err != nil {
		return fmt.Errorf("apply reorder: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE headings SET ord = ? WHERE file_id = ? AND ord = -1", targetOrder, fileID); err != nil {
		return fmt.Errorf("finish reorder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info().Int64("file_id", fileID).
		Int64("source", sourceOrder).Int64("target", targetOrder).
		Msg("headings reordered")
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ftsMatchExpr quotes each token so user input can't inject FTS5 syntax.
func ftsMatchExpr(normalized string) string {
	tokens := strings.Fields(normalized)
	for i, t := range tokens {
		tokens[i] = `"` + t + `"`
	}
	return strings.Join(tokens, " ")
}
