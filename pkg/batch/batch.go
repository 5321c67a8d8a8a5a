// Package batch renders a directory of record documents into vault notes
// concurrently.
package batch

import (
	"context"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/logging"
	"movie-note-core/pkg/model"
	"movie-note-core/pkg/record"
	"movie-note-core/pkg/vault"
)

// Job is one record document waiting to be rendered.
type Job struct {
	Source string
	Kind   model.Kind
	Data   []byte
}

// Result is the outcome of one job. Err is set when the document could not
// be decoded, named, rendered or written.
type Result struct {
	Index      int    `json:"-"`
	Source     string `json:"source"`
	Name       string `json:"name,omitempty"`
	OutputPath string `json:"outputPath,omitempty"`
	SizeBytes  int64  `json:"sizeBytes"`
	Skipped    bool   `json:"skipped,omitempty"`

	// DuplicateOf names the earlier job of the batch that claimed the
	// same note path.
	DuplicateOf string         `json:"duplicateOf,omitempty"`
	Record      *record.Record `json:"-"`
	Err         error          `json:"-"`
	Error       string         `json:"error,omitempty"`
}

type Options struct {
	// Template is the template path or built-in name; empty renders the
	// frontmatter block only.
	Template string
	// Folder is the folder pattern notes are written into.
	Folder    string
	Overwrite bool
	// Concurrency defaults to the number of CPUs.
	Concurrency int
}

// Renderer is the part of render.Renderer the runner needs.
type Renderer interface {
	Render(ctx context.Context, rec *record.Record, templatePath string) (string, error)
}

// NoteStore is where rendered notes go.
type NoteStore interface {
	Exists(p string) bool
	WriteNote(p, content string) error
}

type Runner struct {
	renderer Renderer
	notes    NoteStore
	namer    vault.Namer
	logger   zerolog.Logger

	// OnResult, when set, is called once per finished job. Calls are
	// serialized but arrive in completion order.
	OnResult func(Result)
	mu       sync.Mutex
}

func NewRunner(renderer Renderer, notes NoteStore, namer vault.Namer) *Runner {
	return &Runner{
		renderer: renderer,
		notes:    notes,
		namer:    namer,
		logger:   logging.GetLogger("batch"),
	}
}

// Run renders every job and returns the results in job order. Jobs are
// decoded and named in job order first; when several records map to the
// same note path only the first one is rendered and the rest are skipped,
// with or without Overwrite.
func (r *Runner) Run(ctx context.Context, jobs []Job, options Options) []Result {
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	r.logger.Debug().Int("jobs", len(jobs)).Int("concurrency", concurrency).Msg("Starting batch render")

	claimed := make(map[string]string, len(jobs))
	resultPool := pool.NewWithResults[Result]().WithMaxGoroutines(concurrency)
	for i, job := range jobs {
		res := r.prepare(ctx, job, options)
		res.Index = i
		if res.Err == nil {
			key := strings.ToLower(res.OutputPath)
			if first, ok := claimed[key]; ok {
				res.Skipped = true
				res.DuplicateOf = first
				r.logger.Info().Str("source", job.Source).Str("path", res.OutputPath).Str("duplicateOf", first).Msg("Note path already claimed in this batch")
			} else {
				claimed[key] = job.Source
			}
		}
		resultPool.Go(func() Result {
			if res.Err == nil && !res.Skipped {
				r.write(ctx, &res, options)
			}
			if res.Err != nil {
				res.Error = res.Err.Error()
				r.logger.Warn().Err(res.Err).Str("source", job.Source).Msg("Record not rendered")
			}
			r.report(res)
			return res
		})
	}

	results := resultPool.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// prepare decodes the job and works out its note path.
func (r *Runner) prepare(ctx context.Context, job Job, options Options) Result {
	res := Result{Source: job.Source}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	rec, err := model.Decode(job.Kind, job.Data)
	if err != nil {
		res.Err = err
		return res
	}
	res.Record = rec
	res.Name = rec.Name()

	notePath, err := r.namer.NotePath(rec, options.Folder)
	if err != nil {
		res.Err = err
		return res
	}
	res.OutputPath = notePath
	return res
}

func (r *Runner) write(ctx context.Context, res *Result, options Options) {
	if err := ctx.Err(); err != nil {
		res.Err = err
		return
	}
	if !options.Overwrite && r.notes.Exists(res.OutputPath) {
		res.Skipped = true
		return
	}

	content, err := r.renderer.Render(ctx, res.Record, options.Template)
	if err != nil {
		res.Err = err
		return
	}
	if err := r.notes.WriteNote(res.OutputPath, content); err != nil {
		res.Err = err
		return
	}
	res.SizeBytes = int64(len(content))
}

func (r *Runner) report(res Result) {
	if r.OnResult == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OnResult(res)
}

var recordExtensions = map[string]struct{}{
	".json": {},
	".yaml": {},
	".yml":  {},
}

// LoadJobs reads the record documents directly inside dir, in name order.
func LoadJobs(fsys afero.Fs, dir string, kind model.Kind) ([]Job, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStore, "reading record directory %s", dir)
	}

	var jobs []Job
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := recordExtensions[strings.ToLower(path.Ext(entry.Name()))]; !ok {
			continue
		}
		source := path.Join(dir, entry.Name())
		data, err := afero.ReadFile(fsys, source)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrStore, "reading record %s", source)
		}
		jobs = append(jobs, Job{Source: source, Kind: kind, Data: data})
	}
	return jobs, nil
}

// Stats totals a batch.
type Stats struct {
	Total    int           `json:"total"`
	Rendered int           `json:"rendered"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Bytes    int64         `json:"bytes"`
	Elapsed  time.Duration `json:"elapsed"`
}

func Tally(results []Result, elapsed time.Duration) Stats {
	stats := Stats{Total: len(results), Elapsed: elapsed}
	for _, res := range results {
		switch {
		case res.Err != nil:
			stats.Failed++
		case res.Skipped:
			stats.Skipped++
		default:
			stats.Rendered++
			stats.Bytes += res.SizeBytes
		}
	}
	return stats
}
