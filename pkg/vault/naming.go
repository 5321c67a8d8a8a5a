package vault

import (
	"regexp"
	"strings"

	"movie-note-core/pkg/datetoken"
	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/record"
	"movie-note-core/pkg/substitute"
)

var (
	illegalChars = regexp.MustCompile(`[\\*<>":?]`)
	whitespace   = regexp.MustCompile(`\s+`)
	leadingDots  = regexp.MustCompile(`^\.+`)
)

// SanitizePath removes characters that are not allowed in vault paths,
// collapses runs of whitespace and strips leading dots. Slashes are kept.
func SanitizePath(s string) string {
	s = illegalChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return leadingDots.ReplaceAllString(s, "")
}

// SanitizeFileName is SanitizePath for a single path element, so slashes
// are removed as well.
func SanitizeFileName(s string) string {
	return strings.TrimSpace(SanitizePath(strings.ReplaceAll(s, "/", "")))
}

// Namer derives note file names and folders from records.
type Namer struct {
	// Format is an optional file name pattern such as
	// "{{title}} ({{release_year}})". Date tokens are allowed. When empty
	// the record name is used.
	Format string
	Dates  *datetoken.Evaluator
}

// FileName returns the note file name for rec, including the ".md"
// extension.
func (n Namer) FileName(rec *record.Record) (string, error) {
	name := rec.Name()
	if n.Format != "" {
		format := n.Format
		if n.Dates != nil {
			var err error
			if format, err = n.Dates.Evaluate(format); err != nil {
				return "", err
			}
		}
		name = substitute.Inline(format, rec)
	}

	name = SanitizeFileName(name)
	if name == "" {
		return "", errors.New(errors.ErrInvalidRecord, "record produces an empty file name").
			WithDetail("format", n.Format)
	}
	return name + noteExt, nil
}

// FolderPath fills the {{field}} placeholders of pattern from rec and
// returns a normalized vault folder. An empty pattern is the vault root.
func FolderPath(rec *record.Record, pattern string) string {
	folder := NormalizePath(SanitizePath(substitute.Inline(pattern, rec)))
	if folder == "/" {
		return ""
	}
	return folder
}

// NotePath joins the folder for rec and its file name.
func (n Namer) NotePath(rec *record.Record, folderPattern string) (string, error) {
	name, err := n.FileName(rec)
	if err != nil {
		return "", err
	}
	if folder := FolderPath(rec, folderPattern); folder != "" {
		return folder + "/" + name, nil
	}
	return name, nil
}
