package batch

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/model"
	"movie-note-core/pkg/moment"
	"movie-note-core/pkg/record"
	"movie-note-core/pkg/render"
	"movie-note-core/pkg/vault"
	"movie-note-core/templates"
)

func newRunner(t *testing.T) (*Runner, *vault.Vault) {
	t.Helper()
	v := vault.New(afero.NewMemMapFs())
	renderer := render.New(templates.NewReader(v),
		render.WithCalendar(moment.FixedCalendar(time.Date(2024, time.February, 3, 14, 5, 0, 0, time.UTC))),
	)
	return NewRunner(renderer, v, vault.Namer{}), v
}

func TestRunner_Run(t *testing.T) {
	runner, v := newRunner(t)
	require.NoError(t, v.WriteNote("Movies/Heat.md", "mine"))

	var seen []string
	runner.OnResult = func(res Result) { seen = append(seen, res.Source) }

	jobs := []Job{
		{Source: "alien.json", Kind: model.KindMovie, Data: []byte(`{"title": "Alien", "genres": ["Horror", "Science Fiction"]}`)},
		{Source: "bad.json", Kind: model.KindMovie, Data: []byte(`{"id": 1}`)},
		{Source: "heat.yaml", Kind: model.KindMovie, Data: []byte("title: Heat\n")},
	}
	results := runner.Run(context.Background(), jobs, Options{Template: "movie", Folder: "Movies", Concurrency: 2})
	require.Len(t, results, 3)
	assert.ElementsMatch(t, []string{"alien.json", "bad.json", "heat.yaml"}, seen)

	alien := results[0]
	require.NoError(t, alien.Err)
	assert.Equal(t, "Alien", alien.Name)
	assert.Equal(t, "Movies/Alien.md", alien.OutputPath)
	assert.Positive(t, alien.SizeBytes)
	content, err := afero.ReadFile(v.Fs(), "/Movies/Alien.md")
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Alien")
	assert.Contains(t, string(content), "  - \"Horror\"\n  - \"Science Fiction\"")
	assert.Contains(t, string(content), "created: 2024-02-03 14:05")

	assert.True(t, errors.IsErrorCode(results[1].Err, errors.ErrInvalidRecord))
	assert.NotEmpty(t, results[1].Error)

	assert.True(t, results[2].Skipped)
	content, err = afero.ReadFile(v.Fs(), "/Movies/Heat.md")
	require.NoError(t, err)
	assert.Equal(t, "mine", string(content))

	stats := Tally(results, time.Second)
	assert.Equal(t, Stats{Total: 3, Rendered: 1, Skipped: 1, Failed: 1, Bytes: alien.SizeBytes, Elapsed: time.Second}, stats)
}

func TestRunner_Overwrite(t *testing.T) {
	runner, v := newRunner(t)
	require.NoError(t, v.WriteNote("Heat.md", "mine"))

	results := runner.Run(context.Background(), []Job{
		{Source: "heat.yaml", Kind: model.KindGeneric, Data: []byte("name: Heat\nyear: 1995\n")},
	}, Options{Overwrite: true})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.False(t, results[0].Skipped)

	content, err := afero.ReadFile(v.Fs(), "/Heat.md")
	require.NoError(t, err)
	assert.Equal(t, "---\nname: Heat\nyear: 1995\n---\n", string(content))
}

type slowRenderer struct {
	delay time.Duration
}

func (s slowRenderer) Render(ctx context.Context, rec *record.Record, templatePath string) (string, error) {
	time.Sleep(s.delay)
	return "# " + rec.Name() + "\n", nil
}

func TestRunner_DuplicateNotePaths(t *testing.T) {
	for _, overwrite := range []bool{false, true} {
		v := vault.New(afero.NewMemMapFs())
		runner := NewRunner(slowRenderer{delay: 20 * time.Millisecond}, v, vault.Namer{})

		results := runner.Run(context.Background(), []Job{
			{Source: "heat-1995.json", Kind: model.KindMovie, Data: []byte(`{"title": "Heat", "id": 949}`)},
			{Source: "heat-1986.json", Kind: model.KindMovie, Data: []byte(`{"title": "Heat", "id": 10000}`)},
			{Source: "heat-lower.json", Kind: model.KindMovie, Data: []byte(`{"title": "heat"}`)},
		}, Options{Overwrite: overwrite, Concurrency: 2})
		require.Len(t, results, 3)

		require.NoError(t, results[0].Err)
		assert.False(t, results[0].Skipped)
		for _, res := range results[1:] {
			require.NoError(t, res.Err)
			assert.True(t, res.Skipped)
			assert.Equal(t, "heat-1995.json", res.DuplicateOf)
		}

		stats := Tally(results, time.Second)
		assert.Equal(t, 1, stats.Rendered)
		assert.Equal(t, 2, stats.Skipped)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	runner, v := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := runner.Run(ctx, []Job{
		{Source: "a.json", Kind: model.KindGeneric, Data: []byte(`{"name": "A"}`)},
	}, Options{})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.False(t, v.Exists("A.md"))
}

func TestLoadJobs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for name, content := range map[string]string{
		"in/b.yml":      "name: B",
		"in/a.json":     `{"name": "A"}`,
		"in/notes.txt":  "skip",
		"in/sub/c.json": `{"name": "C"}`,
	} {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0644))
	}

	jobs, err := LoadJobs(fsys, "in", model.KindGeneric)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "in/a.json", jobs[0].Source)
	assert.Equal(t, "in/b.yml", jobs[1].Source)
	assert.Equal(t, model.KindGeneric, jobs[0].Kind)

	_, err = LoadJobs(fsys, "missing", model.KindGeneric)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStore))
}

func TestSummary(t *testing.T) {
	results := []Result{
		{Source: "alien.json", OutputPath: "Movies/Alien.md", SizeBytes: 1200},
		{Source: "bad.json", Err: stderrors.New("boom")},
		{Source: "heat.yaml", OutputPath: "Movies/Heat.md", Skipped: true},
		{Source: "heat-copy.yaml", OutputPath: "Movies/Heat.md", Skipped: true, DuplicateOf: "heat.yaml"},
	}

	out, err := Summary(results, 1500*time.Millisecond)
	require.NoError(t, err)
	assert.Contains(t, out, "Rendered 1 of 4 records (1.2 kB) in 1.5s, 2 skipped, 1 failed.")
	assert.Contains(t, out, "+ Movies/Alien.md (1.2 kB)")
	assert.Contains(t, out, "x bad.json: boom")
	assert.Contains(t, out, "- Movies/Heat.md (exists)")
	assert.Contains(t, out, "- Movies/Heat.md (duplicate of heat.yaml)")
}
