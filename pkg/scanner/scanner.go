package scanner

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// TemplateFile describes one candidate note template found in a vault.
type TemplateFile struct {
	RelativePath string    `json:"relativePath"`
	Filename     string    `json:"filename"`
	Extension    string    `json:"extension"`
	SizeBytes    int64     `json:"sizeBytes"`
	LineCount    int       `json:"lineCount"`
	Placeholders int       `json:"placeholders"`
	LastModTime  time.Time `json:"lastModTime"`
	ContentHash  string    `json:"contentHash"`
}

type ScanOptions struct {
	NoGitIgnores     bool
	NoPresetExcludes bool
	// Extensions limits the scan to these extensions, without the dot.
	// Empty means "md".
	Extensions []string
}

var presetExclusions = map[string]struct{}{
	".obsidian":    {},
	".trash":       {},
	".git":         {},
	".stfolder":    {},
	"node_modules": {},
}

var placeholderOpen = []byte("{{")

// processFile reads a single template and collects its metadata. Binary
// files come back as a zero TemplateFile.
func processFile(fsys afero.Fs, filePath, relPath string, info os.FileInfo) (TemplateFile, error) {
	file, err := fsys.Open(filePath)
	if err != nil {
		return TemplateFile{}, err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, _ := file.Read(buffer)
	if bytes.IndexByte(buffer[:n], 0) >= 0 {
		return TemplateFile{}, nil
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return TemplateFile{}, err
	}
	hash := sha256.New()
	lineCount, placeholders := 0, 0
	scanner := bufio.NewScanner(io.TeeReader(file, hash))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineCount++
		placeholders += bytes.Count(scanner.Bytes(), placeholderOpen)
	}
	if err := scanner.Err(); err != nil {
		return TemplateFile{}, err
	}

	return TemplateFile{
		RelativePath: relPath,
		Filename:     info.Name(),
		Extension:    strings.TrimPrefix(path.Ext(info.Name()), "."),
		SizeBytes:    info.Size(),
		LineCount:    lineCount,
		Placeholders: placeholders,
		LastModTime:  info.ModTime().UTC(),
		ContentHash:  hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func loadIgnore(fsys afero.Fs, root string) *gitignore.GitIgnore {
	data, err := afero.ReadFile(fsys, path.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gitignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

// ScanTemplates walks root on fsys and returns the template files it
// finds, sorted by relative path. Relative paths use forward slashes.
func ScanTemplates(ctx context.Context, fsys afero.Fs, root string, options ScanOptions) ([]TemplateFile, error) {
	var ignoreMatcher *gitignore.GitIgnore
	if !options.NoGitIgnores {
		ignoreMatcher = loadIgnore(fsys, root)
	}

	wanted := map[string]struct{}{}
	for _, ext := range options.Extensions {
		wanted[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	if len(wanted) == 0 {
		wanted["md"] = struct{}{}
	}

	resultPool := pool.NewWithResults[TemplateFile]().WithErrors().WithContext(ctx).
		WithMaxGoroutines(runtime.NumCPU())

	walkErr := afero.Walk(fsys, root, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if filePath == root {
			return nil
		}
		relPath, err := filepath.Rel(root, filePath)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if info.IsDir() {
			if _, exists := presetExclusions[info.Name()]; !options.NoPresetExcludes && exists {
				return filepath.SkipDir
			}
			if ignoreMatcher != nil && ignoreMatcher.MatchesPath(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || (ignoreMatcher != nil && ignoreMatcher.MatchesPath(relPath)) {
			return nil
		}
		if _, ok := wanted[strings.ToLower(strings.TrimPrefix(path.Ext(info.Name()), "."))]; !ok {
			return nil
		}
		resultPool.Go(func(_ context.Context) (TemplateFile, error) {
			return processFile(fsys, filePath, relPath, info)
		})
		return nil
	})

	results, processErr := resultPool.Wait()

	if walkErr != nil {
		return nil, walkErr
	}
	if processErr != nil {
		return nil, processErr
	}

	finalResults := make([]TemplateFile, 0, len(results))
	for _, res := range results {
		if res.RelativePath != "" {
			finalResults = append(finalResults, res)
		}
	}
	sort.Slice(finalResults, func(i, j int) bool {
		return finalResults[i].RelativePath < finalResults[j].RelativePath
	})
	return finalResults, nil
}
