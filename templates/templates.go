package templates

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strings"
)

// The built-in note templates live under notes/; the .hbs files are
// report layouts used by the CLI.
//
//go:embed notes/*.md *.hbs
var FS embed.FS

// BatchSummaryFile is the Handlebars layout of the batch render summary.
const BatchSummaryFile = "batch-summary.txt.hbs"

// TemplateInfo holds metadata for our built-in templates.
type TemplateInfo struct {
	Name        string // User-friendly name, e.g., "movie"
	FileName    string // Path within the embed.FS, e.g., "notes/movie.md"
	Description string
}

// BuiltInTemplates is populated at program startup from the notes/ directory.
var BuiltInTemplates []TemplateInfo

var descriptions = map[string]string{
	"movie":      "A built-in movie note with frontmatter, poster and overview.",
	"collection": "A built-in collection note listing its parts.",
}

func init() {
	entries, err := FS.ReadDir("notes")
	if err != nil {
		panic(fmt.Sprintf("failed to read embedded templates directory: %v", err))
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			name := strings.TrimSuffix(entry.Name(), ".md")
			description, ok := descriptions[name]
			if !ok {
				description = "A built-in note template."
			}
			BuiltInTemplates = append(BuiltInTemplates, TemplateInfo{
				Name:        name,
				FileName:    path.Join("notes", entry.Name()),
				Description: description,
			})
		}
	}
}

// BuiltIn returns the content of the built-in note template called name.
func BuiltIn(name string) (string, bool) {
	for _, t := range BuiltInTemplates {
		if t.Name == name {
			content, err := FS.ReadFile(t.FileName)
			if err != nil {
				return "", false
			}
			return string(content), true
		}
	}
	return "", false
}

// ReadFile returns an embedded layout such as BatchSummaryFile.
func ReadFile(name string) (string, error) {
	content, err := FS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("error reading embedded template '%s': %w", name, err)
	}
	return string(content), nil
}

// Source is anything that can load a template by path, typically a vault.
type Source interface {
	ReadTemplate(ctx context.Context, path string) (string, error)
}

// Reader resolves built-in template names before delegating to a vault.
type Reader struct {
	vault Source
}

func NewReader(vault Source) *Reader {
	return &Reader{vault: vault}
}

func (r *Reader) ReadTemplate(ctx context.Context, path string) (string, error) {
	if content, ok := BuiltIn(path); ok {
		return content, nil
	}
	return r.vault.ReadTemplate(ctx, path)
}
