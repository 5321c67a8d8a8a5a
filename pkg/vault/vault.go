// Package vault is the note storage the renderer reads templates from and
// writes notes into. A vault is a directory tree of Markdown files; every
// path handled here is relative to the vault root and uses forward slashes.
package vault

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/logging"
	"movie-note-core/pkg/scanner"
)

const noteExt = ".md"

// Vault reads and writes notes on an afero filesystem rooted at the vault
// directory.
type Vault struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// New wraps fsys, whose root is the vault root.
func New(fsys afero.Fs) *Vault {
	return &Vault{fs: fsys, logger: logging.GetLogger("vault")}
}

// Open returns a Vault over the directory dir on the OS filesystem.
func Open(dir string) (*Vault, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStore, "resolving vault path %s", dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStore, "opening vault %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrStore, "vault %s is not a directory", dir)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func (v *Vault) Fs() afero.Fs {
	return v.fs
}

// NormalizePath cleans a user supplied vault path: backslashes become
// slashes, repeated and surrounding slashes are dropped, and non breaking
// spaces become plain spaces. The vault root normalizes to "/".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(p)
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "/"
	}
	return strings.Join(kept, "/")
}

// ReadTemplate returns the contents of the template at templatePath.
//
// "/" names no template and yields "" without error. Otherwise the path is
// resolved like a note link: the exact file, then the file with ".md"
// appended, then the first file anywhere in the vault whose path ends with
// the link. ErrTemplateNotFound is returned when nothing matches.
func (v *Vault) ReadTemplate(ctx context.Context, templatePath string) (string, error) {
	if templatePath == "/" {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	link := NormalizePath(templatePath)
	resolved, err := v.resolve(ctx, link)
	if err != nil {
		return "", err
	}
	if resolved == "" {
		return "", errors.Newf(errors.ErrTemplateNotFound, "template %s not found", link).
			WithDetail("path", link)
	}

	data, err := afero.ReadFile(v.fs, "/"+resolved)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrTemplateRead, "reading template %s", resolved).
			WithDetail("path", resolved)
	}
	v.logger.Debug().Str("link", link).Str("path", resolved).Int("bytes", len(data)).Msg("Template loaded")
	return string(data), nil
}

func (v *Vault) resolve(ctx context.Context, link string) (string, error) {
	if link == "/" {
		return "", nil
	}
	candidates := []string{link}
	if path.Ext(link) != noteExt {
		candidates = append(candidates, link+noteExt)
	}
	for _, c := range candidates {
		if v.isFile(c) {
			return c, nil
		}
	}

	var found string
	err := afero.Walk(v.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), "/")
		for _, c := range candidates {
			if strings.HasSuffix(rel, "/"+c) {
				found = rel
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil && err != filepath.SkipAll {
		return "", err
	}
	return found, nil
}

func (v *Vault) isFile(p string) bool {
	info, err := v.fs.Stat("/" + p)
	return err == nil && !info.IsDir()
}

// Exists reports whether a note exists at p.
func (v *Vault) Exists(p string) bool {
	return v.isFile(NormalizePath(p))
}

// WriteNote creates or replaces the note at p, creating parent folders as
// needed.
func (v *Vault) WriteNote(p, content string) error {
	p = NormalizePath(p)
	if dir := path.Dir(p); dir != "." {
		if err := v.fs.MkdirAll("/"+dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrStore, "creating folder %s", dir)
		}
	}
	if err := afero.WriteFile(v.fs, "/"+p, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrStore, "writing note %s", p)
	}
	v.logger.Info().Str("path", p).Int("bytes", len(content)).Msg("Note written")
	return nil
}

// Templates lists the Markdown files of the vault that can serve as note
// templates.
func (v *Vault) Templates(ctx context.Context, options scanner.ScanOptions) ([]scanner.TemplateFile, error) {
	return scanner.ScanTemplates(ctx, v.fs, "/", options)
}
