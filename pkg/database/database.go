package database

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"movie-note-core/pkg/errors"
)

func InitializeDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrStore, "creating database directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "opening database")
	}

	statement := `
	CREATE TABLE IF NOT EXISTS records (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		kind        TEXT NOT NULL,
		fields_json TEXT NOT NULL,
		imported_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS renders (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		record_name TEXT NOT NULL,
		template    TEXT NOT NULL,
		output_path TEXT NOT NULL,
		size_bytes  INTEGER NOT NULL,
		rendered_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_renders_record_name ON renders(record_name);
	CREATE TABLE IF NOT EXISTS template_files (
		relative_path TEXT PRIMARY KEY,
		filename      TEXT NOT NULL,
		extension     TEXT,
		size_bytes    INTEGER NOT NULL,
		line_count    INTEGER NOT NULL,
		placeholders  INTEGER NOT NULL,
		last_mod_time TEXT NOT NULL,
		content_hash  TEXT NOT NULL
	);
	`
	_, err = db.Exec(statement)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrStore, "creating schema")
	}

	return db, nil
}
