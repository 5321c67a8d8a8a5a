// File: pkg/filter/filter.go

package filter

import (
	"database/sql"
	"strings"

	"movie-note-core/pkg/errors"
)

// Filter selects cached templates. Zero values select everything;
// Contains matches paths case-insensitively.
type Filter struct {
	ExcludedExtensions   []string `json:"excludedExtensions"`
	ExcludedPrefixes     []string `json:"excludedPrefixes"`
	Contains             string   `json:"contains"`
	OnlyWithPlaceholders bool     `json:"onlyWithPlaceholders"`
}

// GetFilteredTemplatePaths returns the relative paths of the cached
// templates that pass the filter, in path order.
func GetFilteredTemplatePaths(db *sql.DB, filter Filter) ([]string, error) {
	baseQuery := "SELECT relative_path, extension FROM template_files"
	var queryParams []interface{}

	var conditions []string
	if filter.OnlyWithPlaceholders {
		conditions = append(conditions, "placeholders > 0")
	}
	if filter.Contains != "" {
		conditions = append(conditions, "instr(lower(relative_path), ?) > 0")
		queryParams = append(queryParams, strings.ToLower(filter.Contains))
	}
	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY relative_path"

	rows, err := db.Query(baseQuery, queryParams...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "querying template cache")
	}
	defer rows.Close()

	resultingPaths := []string{}

FileLoop:
	for rows.Next() {
		var relativePath string
		var extension sql.NullString
		if err := rows.Scan(&relativePath, &extension); err != nil {
			return nil, errors.Wrap(err, errors.ErrStore, "scanning template row")
		}

		for _, ext := range filter.ExcludedExtensions {
			if ext == "" {
				continue
			}
			if ext == "no_extension" {
				if extension.String == "" {
					continue FileLoop
				}
			} else if strings.EqualFold(extension.String, strings.TrimPrefix(ext, ".")) {
				continue FileLoop
			}
		}

		for _, prefix := range filter.ExcludedPrefixes {
			if prefix != "" && strings.HasPrefix(relativePath, prefix) {
				continue FileLoop
			}
		}

		resultingPaths = append(resultingPaths, relativePath)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrStore, "querying template cache")
	}

	return resultingPaths, nil
}
