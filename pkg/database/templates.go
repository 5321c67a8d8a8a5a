package database

import (
	"database/sql"
	"time"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/scanner"
)

// SyncResult counts the template_files rows touched by a sync.
type SyncResult struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Deleted  int `json:"deleted"`
}

// Changed reports whether the sync touched any row.
func (r SyncResult) Changed() bool {
	return r.Added+r.Modified+r.Deleted > 0
}

const insertTemplateFile = "INSERT INTO template_files(relative_path, filename, extension, size_bytes, line_count, placeholders, last_mod_time, content_hash) VALUES(?, ?, ?, ?, ?, ?, ?, ?)"

// SyncTemplateFiles stores the result of a vault scan. A full sync
// replaces the table; an incremental one only writes the rows whose
// modification time or content hash changed and drops vanished files.
func SyncTemplateFiles(db *sql.DB, files []scanner.TemplateFile, incremental bool) (SyncResult, error) {
	if !incremental {
		return replaceTemplateFiles(db, files)
	}

	type dbFileInfo struct {
		ModTime time.Time
		Hash    string
	}
	dbFiles := make(map[string]dbFileInfo)
	rows, err := db.Query("SELECT relative_path, last_mod_time, content_hash FROM template_files")
	if err != nil {
		return SyncResult{}, errors.Wrap(err, errors.ErrStore, "fetching template cache")
	}
	for rows.Next() {
		var path, modTimeStr, hash string
		if err := rows.Scan(&path, &modTimeStr, &hash); err != nil {
			rows.Close()
			return SyncResult{}, errors.Wrap(err, errors.ErrStore, "scanning template row")
		}
		modTime, _ := time.Parse(time.RFC3339Nano, modTimeStr)
		dbFiles[path] = dbFileInfo{ModTime: modTime, Hash: hash}
	}
	rows.Close()

	seen := make(map[string]struct{}, len(files))
	var toInsert, toUpdate []scanner.TemplateFile
	for _, f := range files {
		seen[f.RelativePath] = struct{}{}
		info, exists := dbFiles[f.RelativePath]
		if !exists {
			toInsert = append(toInsert, f)
		} else if !f.LastModTime.Equal(info.ModTime) || f.ContentHash != info.Hash {
			toUpdate = append(toUpdate, f)
		}
	}
	var toDelete []string
	for path := range dbFiles {
		if _, exists := seen[path]; !exists {
			toDelete = append(toDelete, path)
		}
	}

	result := SyncResult{Added: len(toInsert), Modified: len(toUpdate), Deleted: len(toDelete)}
	if !result.Changed() {
		return result, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return SyncResult{}, errors.Wrap(err, errors.ErrStore, "starting transaction")
	}
	if err := execTemplateFiles(tx, insertTemplateFile, toInsert, insertArgs); err != nil {
		tx.Rollback()
		return SyncResult{}, err
	}
	if err := execTemplateFiles(tx, "UPDATE template_files SET filename = ?, extension = ?, size_bytes = ?, line_count = ?, placeholders = ?, last_mod_time = ?, content_hash = ? WHERE relative_path = ?", toUpdate, updateArgs); err != nil {
		tx.Rollback()
		return SyncResult{}, err
	}
	if len(toDelete) > 0 {
		stmt, err := tx.Prepare("DELETE FROM template_files WHERE relative_path = ?")
		if err != nil {
			tx.Rollback()
			return SyncResult{}, errors.Wrap(err, errors.ErrStore, "preparing statement")
		}
		defer stmt.Close()
		for _, path := range toDelete {
			if _, err := stmt.Exec(path); err != nil {
				tx.Rollback()
				return SyncResult{}, errors.Wrapf(err, errors.ErrStore, "deleting %s", path)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return SyncResult{}, errors.Wrap(err, errors.ErrStore, "committing template cache")
	}
	return result, nil
}

func replaceTemplateFiles(db *sql.DB, files []scanner.TemplateFile) (SyncResult, error) {
	tx, err := db.Begin()
	if err != nil {
		return SyncResult{}, errors.Wrap(err, errors.ErrStore, "starting transaction")
	}
	res, err := tx.Exec("DELETE FROM template_files")
	if err != nil {
		tx.Rollback()
		return SyncResult{}, errors.Wrap(err, errors.ErrStore, "clearing template cache")
	}
	deleted, _ := res.RowsAffected()

	if err := execTemplateFiles(tx, insertTemplateFile, files, insertArgs); err != nil {
		tx.Rollback()
		return SyncResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return SyncResult{}, errors.Wrap(err, errors.ErrStore, "committing template cache")
	}
	return SyncResult{Added: len(files), Deleted: int(deleted)}, nil
}

func insertArgs(f scanner.TemplateFile) []interface{} {
	return []interface{}{f.RelativePath, f.Filename, f.Extension, f.SizeBytes, f.LineCount, f.Placeholders, f.LastModTime.Format(time.RFC3339Nano), f.ContentHash}
}

func updateArgs(f scanner.TemplateFile) []interface{} {
	return []interface{}{f.Filename, f.Extension, f.SizeBytes, f.LineCount, f.Placeholders, f.LastModTime.Format(time.RFC3339Nano), f.ContentHash, f.RelativePath}
}

func execTemplateFiles(tx *sql.Tx, query string, files []scanner.TemplateFile, args func(scanner.TemplateFile) []interface{}) error {
	if len(files) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		return errors.Wrap(err, errors.ErrStore, "preparing statement")
	}
	defer stmt.Close()
	for _, f := range files {
		if _, err := stmt.Exec(args(f)...); err != nil {
			return errors.Wrapf(err, errors.ErrStore, "writing template metadata for %s", f.RelativePath)
		}
	}
	return nil
}

// ListTemplateFiles returns the cached template metadata ordered by path.
func ListTemplateFiles(db *sql.DB) ([]scanner.TemplateFile, error) {
	rows, err := db.Query("SELECT relative_path, filename, extension, size_bytes, line_count, placeholders, last_mod_time, content_hash FROM template_files ORDER BY relative_path")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "listing template cache")
	}
	defer rows.Close()

	files := []scanner.TemplateFile{}
	for rows.Next() {
		var f scanner.TemplateFile
		var extension sql.NullString
		var modTime string
		if err := rows.Scan(&f.RelativePath, &f.Filename, &extension, &f.SizeBytes, &f.LineCount, &f.Placeholders, &modTime, &f.ContentHash); err != nil {
			return nil, errors.Wrap(err, errors.ErrStore, "scanning template row")
		}
		f.Extension = extension.String
		f.LastModTime, _ = time.Parse(time.RFC3339Nano, modTime)
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "listing template cache")
	}
	return files, nil
}
