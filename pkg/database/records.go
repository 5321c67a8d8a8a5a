package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/record"
)

// StoredRecord is a record saved in the records table.
type StoredRecord struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Record     *record.Record `json:"fields"`
	ImportedAt time.Time      `json:"importedAt"`
}

// RecordSummary is one row of a record listing.
type RecordSummary struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	SizeBytes  int64     `json:"sizeBytes"`
	ImportedAt time.Time `json:"importedAt"`
}

// SaveRecord inserts rec or replaces the stored record with the same name.
func SaveRecord(db *sql.DB, kind string, rec *record.Record) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	fields, err := json.Marshal(rec)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrEncode, "encoding record fields")
	}

	var id int64
	err = db.QueryRow(`
		INSERT INTO records(name, kind, fields_json, imported_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, fields_json = excluded.fields_json, imported_at = excluded.imported_at
		RETURNING id`,
		rec.Name(), kind, string(fields), time.Now().UTC().Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrStore, "saving record %q", rec.Name())
	}
	return id, nil
}

// LoadRecord returns the record stored under name.
func LoadRecord(db *sql.DB, name string) (*StoredRecord, error) {
	row := db.QueryRow("SELECT id, name, kind, fields_json, imported_at FROM records WHERE name = ?", name)
	stored, err := scanStoredRecord(row)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.Newf(errors.ErrRecordNotFound, "record %q not found", name)
	case err != nil && errors.GetErrorCode(err) == errors.ErrUnknown:
		return nil, errors.Wrapf(err, errors.ErrStore, "loading record %q", name)
	}
	return stored, err
}

// FindRecordByField returns the most recently imported record of kind whose
// top level field key equals value.
func FindRecordByField(db *sql.DB, kind, key string, value interface{}) (*StoredRecord, error) {
	row := db.QueryRow(`
		SELECT id, name, kind, fields_json, imported_at FROM records
		WHERE kind = ? AND json_extract(fields_json, ?) = ?
		ORDER BY imported_at DESC LIMIT 1`,
		kind, "$."+key, value,
	)
	stored, err := scanStoredRecord(row)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.Newf(errors.ErrRecordNotFound, "no %s record with %s %v", kind, key, value)
	case err != nil && errors.GetErrorCode(err) == errors.ErrUnknown:
		return nil, errors.Wrapf(err, errors.ErrStore, "finding %s record by %s", kind, key)
	}
	return stored, err
}

// scanStoredRecord returns sql.ErrNoRows and driver errors unwrapped.
func scanStoredRecord(row *sql.Row) (*StoredRecord, error) {
	var (
		stored     StoredRecord
		fieldsJSON string
		importedAt string
	)
	if err := row.Scan(&stored.ID, &stored.Name, &stored.Kind, &fieldsJSON, &importedAt); err != nil {
		return nil, err
	}
	rec, err := record.Decode([]byte(fieldsJSON))
	if err != nil {
		return nil, err
	}
	stored.Record = rec
	stored.ImportedAt, _ = time.Parse(time.RFC3339Nano, importedAt)
	return &stored, nil
}

// ListRecords returns every stored record, most recently imported first.
func ListRecords(db *sql.DB, kind string) ([]RecordSummary, error) {
	query := "SELECT name, kind, length(fields_json), imported_at FROM records"
	var params []interface{}
	if kind != "" {
		query += " WHERE kind = ?"
		params = append(params, kind)
	}
	query += " ORDER BY imported_at DESC, name"

	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "listing records")
	}
	defer rows.Close()

	summaries := []RecordSummary{}
	for rows.Next() {
		var s RecordSummary
		var importedAt string
		if err := rows.Scan(&s.Name, &s.Kind, &s.SizeBytes, &importedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrStore, "scanning record row")
		}
		s.ImportedAt, _ = time.Parse(time.RFC3339Nano, importedAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "listing records")
	}
	return summaries, nil
}

func DeleteRecord(db *sql.DB, name string) error {
	res, err := db.Exec("DELETE FROM records WHERE name = ?", name)
	if err != nil {
		return errors.Wrapf(err, errors.ErrStore, "deleting record %q", name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrRecordNotFound, "record %q not found", name)
	}
	return nil
}

// RenderEntry is one line of the render history.
type RenderEntry struct {
	ID         int64     `json:"id"`
	RecordName string    `json:"recordName"`
	Template   string    `json:"template"`
	OutputPath string    `json:"outputPath"`
	SizeBytes  int64     `json:"sizeBytes"`
	RenderedAt time.Time `json:"renderedAt"`
}

func LogRender(db *sql.DB, entry RenderEntry) (int64, error) {
	if entry.RenderedAt.IsZero() {
		entry.RenderedAt = time.Now()
	}
	res, err := db.Exec(
		"INSERT INTO renders(record_name, template, output_path, size_bytes, rendered_at) VALUES(?, ?, ?, ?, ?)",
		entry.RecordName, entry.Template, entry.OutputPath, entry.SizeBytes, entry.RenderedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrStore, "logging render of %q", entry.RecordName)
	}
	return res.LastInsertId()
}

// ListRenders returns the newest renders first, optionally for one record.
// A limit of zero or less means no limit.
func ListRenders(db *sql.DB, recordName string, limit int) ([]RenderEntry, error) {
	query := "SELECT id, record_name, template, output_path, size_bytes, rendered_at FROM renders"
	var params []interface{}
	if recordName != "" {
		query += " WHERE record_name = ?"
		params = append(params, recordName)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}

	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "listing renders")
	}
	defer rows.Close()

	entries := []RenderEntry{}
	for rows.Next() {
		var e RenderEntry
		var renderedAt string
		if err := rows.Scan(&e.ID, &e.RecordName, &e.Template, &e.OutputPath, &e.SizeBytes, &renderedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrStore, "scanning render row")
		}
		e.RenderedAt, _ = time.Parse(time.RFC3339Nano, renderedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "listing renders")
	}
	return entries, nil
}
