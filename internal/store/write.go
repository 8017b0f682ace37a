package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"folio/internal/engine"
)

// FileRecord is one parsed document ready to be written to the index.
type FileRecord struct {
	FileName     string
	FolderPath   string
	RelativePath string
	AbsolutePath string
	Author       string
	Hash         string
	Headings     []engine.FileHeading
	Citations    []engine.TaggedBlock
}

// GetMeta reads one meta value, returning "" when the key is absent.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetMeta writes one meta value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

// FileHash returns the stored content hash for a relative path, or "" when
// the file is not indexed yet.
func (s *Store) FileHash(ctx context.Context, relPath string) (string, error) {
	var h string
	err := s.db.QueryRowContext(ctx,
		"SELECT content_hash FROM files WHERE relative_path = ?", relPath).Scan(&h)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return h, err
}

// ReplaceFile writes one parsed document, replacing any previous version:
// the file row is upserted and its headings, citations, search rows, and
// heading embeddings are rebuilt from scratch. It returns the file id and
// the heading row ids in input order, for embedding storage.
func (s *Store) ReplaceFile(ctx context.Context, rec FileRecord) (int64, []int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback()

	var fileID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO files (file_name, folder_path, relative_path, absolute_path, author, heading_count, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(relative_path) DO UPDATE SET
			file_name = excluded.file_name,
			folder_path = excluded.folder_path,
			absolute_path = excluded.absolute_path,
			author = excluded.author,
			heading_count = excluded.heading_count,
			content_hash = excluded.content_hash
		RETURNING id`,
		rec.FileName, rec.FolderPath, rec.RelativePath, rec.AbsolutePath,
		rec.Author, len(rec.Headings), rec.Hash).Scan(&fileID)
	if err != nil {
		return 0, nil, fmt.Errorf("upsert file %s: %w", rec.RelativePath, err)
	}

	if err := clearFileRows(ctx, tx, fileID); err != nil {
		return 0, nil, err
	}

	headingIDs := make([]int64, 0, len(rec.Headings))
	for _, h := range rec.Headings {
		var id int64
		err := tx.QueryRowContext(ctx,
			"INSERT INTO headings (file_id, ord, level, text, copy_text) VALUES (?, ?, ?, ?, ?) RETURNING id",
			fileID, h.Order, h.Level, h.Text, h.CopyText).Scan(&id)
		if err != nil {
			return 0, nil, fmt.Errorf("insert heading: %w", err)
		}
		headingIDs = append(headingIDs, id)
	}
	for _, c := range rec.Citations {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO citations (file_id, ord, text, style_label) VALUES (?, ?, ?, ?)",
			fileID, c.Order, c.Text, c.StyleLabel); err != nil {
			return 0, nil, fmt.Errorf("insert citation: %w", err)
		}
	}
	if err := insertSearchRows(ctx, tx, fileID, rec); err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}
	return fileID, headingIDs, nil
}

// clearFileRows drops a file's headings, citations, search rows, and heading
// embeddings. Embeddings go first, while the heading ids still resolve.
func clearFileRows(ctx context.Context, tx *sql.Tx, fileID int64) error {
	stmts := []string{
		"DELETE FROM vec_headings WHERE heading_id IN (SELECT id FROM headings WHERE file_id = ?)",
		"DELETE FROM headings WHERE file_id = ?",
		"DELETE FROM citations WHERE file_id = ?",
		"DELETE FROM search_fts WHERE file_id = ?",
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, fileID); err != nil {
			return fmt.Errorf("clear file %d: %w", fileID, err)
		}
	}
	return nil
}

// insertSearchRows populates the lexical index for one file: its name, its
// author, each heading, and each citation block as a chunk.
func insertSearchRows(ctx context.Context, tx *sql.Tx, fileID int64, rec FileRecord) error {
	const q = "INSERT INTO search_fts (text, kind, file_id, heading_order, heading_level) VALUES (?, ?, ?, ?, ?)"

	if _, err := tx.ExecContext(ctx, q, rec.FileName, engine.HitKindFile, fileID, 0, 0); err != nil {
		return fmt.Errorf("index file name: %w", err)
	}
	if rec.Author != "" {
		if _, err := tx.ExecContext(ctx, q, rec.Author, engine.HitKindAuthor, fileID, 0, 0); err != nil {
			return fmt.Errorf("index author: %w", err)
		}
	}
	for _, h := range rec.Headings {
		if _, err := tx.ExecContext(ctx, q, h.Text, engine.HitKindHeading, fileID, h.Order, h.Level); err != nil {
			return fmt.Errorf("index heading: %w", err)
		}
	}
	for _, c := range rec.Citations {
		if _, err := tx.ExecContext(ctx, q, c.Text, engine.HitKindChunk, fileID, c.Order, 0); err != nil {
			return fmt.Errorf("index citation: %w", err)
		}
	}
	return nil
}

// InsertHeadingEmbeddings stores one embedding per heading id.
func (s *Store) InsertHeadingEmbeddings(ctx context.Context, headingIDs []int64, embeddings [][]float32) error {
	if len(headingIDs) != len(embeddings) {
		return fmt.Errorf("have %d headings but %d embeddings", len(headingIDs), len(embeddings))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, id := range headingIDs {
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialize embedding: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO vec_headings (heading_id, embedding) VALUES (?, ?)", id, blob); err != nil {
			return fmt.Errorf("insert embedding: %w", err)
		}
	}
	return tx.Commit()
}

// PruneMissing removes files whose relative path is not in keep, along with
// their dependent rows, and returns how many were removed. A nil map clears
// the whole index.
func (s *Store) PruneMissing(ctx context.Context, keep map[string]bool) (int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, relative_path FROM files")
	if err != nil {
		return 0, err
	}
	var stale []int64
	for rows.Next() {
		var (
			id  int64
			rel string
		)
		if err := rows.Scan(&id, &rel); err != nil {
			rows.Close()
			return 0, err
		}
		if !keep[rel] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range stale {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, err
		}
		if err := clearFileRows(ctx, tx, id); err != nil {
			tx.Rollback()
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("delete file %d: %w", id, err)
		}
		if err := tx.Commit(); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// RebuildFolders recomputes the folders table from the files table: every
// folder that directly holds files, all of its ancestors, and a root row.
func (s *Store) RebuildFolders(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT folder_path, COUNT(*) FROM files GROUP BY folder_path")
	if err != nil {
		return err
	}
	counts := map[string]int{}
	for rows.Next() {
		var (
			path string
			n    int
		)
		if err := rows.Scan(&path, &n); err != nil {
			rows.Close()
			return err
		}
		counts[path] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM folders"); err != nil {
		return err
	}
	for _, f := range deriveFolders(counts) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO folders (path, name, parent_path, file_count) VALUES (?, ?, ?, ?)",
			f.Path, f.Name, f.ParentPath, f.FileCount); err != nil {
			return fmt.Errorf("insert folder %q: %w", f.Path, err)
		}
	}
	return tx.Commit()
}

// deriveFolders expands per-folder direct file counts into the full folder
// listing: a root row, every counted folder, and every intermediate ancestor,
// sorted by path.
func deriveFolders(counts map[string]int) []engine.FolderEntry {
	folders := map[string]engine.FolderEntry{
		"": {Path: ""},
	}
	for path, n := range counts {
		for p := path; p != ""; p = parentOf(p) {
			e := folders[p]
			e.Path = p
			e.Name = nameOf(p)
			e.ParentPath = parentOf(p)
			folders[p] = e
		}
		e := folders[path]
		e.FileCount = n
		folders[path] = e
	}

	paths := make([]string, 0, len(folders))
	for p := range folders {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]engine.FolderEntry, 0, len(paths))
	for _, p := range paths {
		out = append(out, folders[p])
	}
	return out
}

func parentOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

func nameOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	return path[i+1:]
}
