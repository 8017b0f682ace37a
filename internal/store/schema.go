package store

import "database/sql"

const ddl = `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS folders (
    path        TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    parent_path TEXT NOT NULL DEFAULT '',
    file_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS files (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    file_name     TEXT NOT NULL,
    folder_path   TEXT NOT NULL DEFAULT '',
    relative_path TEXT NOT NULL UNIQUE,
    absolute_path TEXT NOT NULL,
    author        TEXT NOT NULL DEFAULT '',
    heading_count INTEGER NOT NULL DEFAULT 0,
    content_hash  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS headings (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id   INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    ord       INTEGER NOT NULL,
    level     INTEGER NOT NULL,
    text      TEXT NOT NULL,
    copy_text TEXT NOT NULL DEFAULT '',
    UNIQUE(file_id, ord)
);

CREATE TABLE IF NOT EXISTS citations (
    file_id     INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    ord         INTEGER NOT NULL,
    text        TEXT NOT NULL,
    style_label TEXT NOT NULL DEFAULT ''
);

CREATE VIRTUAL TABLE IF NOT EXISTS search_fts USING fts5(
    text,
    kind UNINDEXED,
    file_id UNINDEXED,
    heading_order UNINDEXED,
    heading_level UNINDEXED
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_headings USING vec0(
    heading_id INTEGER PRIMARY KEY,
    embedding float[768]
);
`

// Init creates the schema tables if they don't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}
