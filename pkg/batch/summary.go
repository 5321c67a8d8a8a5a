package batch

import (
	"time"

	"github.com/aymerick/raymond"
	"github.com/dustin/go-humanize"

	"movie-note-core/pkg/errors"
	"movie-note-core/templates"
)

// Summary renders the human readable batch report from the embedded
// Handlebars layout.
func Summary(results []Result, elapsed time.Duration) (string, error) {
	source, err := templates.ReadFile(templates.BatchSummaryFile)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTemplateRead, "loading batch summary layout")
	}
	tpl, err := raymond.Parse(source)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrFormat, "parsing batch summary layout")
	}
	tpl.RegisterHelper("humanizeBytes", func(bytes int64) string {
		return humanize.Bytes(uint64(bytes))
	})

	stats := Tally(results, elapsed)
	rows := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		message := res.Error
		if message == "" && res.Err != nil {
			message = res.Err.Error()
		}
		rows = append(rows, map[string]interface{}{
			"source":      res.Source,
			"path":        res.OutputPath,
			"size":        res.SizeBytes,
			"skipped":     res.Skipped,
			"duplicateOf": res.DuplicateOf,
			"error":       message,
		})
	}

	out, err := tpl.Exec(map[string]interface{}{
		"total":    stats.Total,
		"rendered": stats.Rendered,
		"skipped":  stats.Skipped,
		"failed":   stats.Failed,
		"bytes":    stats.Bytes,
		"elapsed":  elapsed.Round(time.Millisecond).String(),
		"results":  rows,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrFormat, "rendering batch summary")
	}
	return out, nil
}
