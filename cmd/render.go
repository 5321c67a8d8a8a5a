package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"movie-note-core/pkg/batch"
	"movie-note-core/pkg/database"
	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/logging"
	"movie-note-core/pkg/model"
	"movie-note-core/pkg/record"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render records into notes",
	Long:  `The "render" command group turns records into Markdown notes, one at a time or a whole directory at once.`,
}

var renderNoteCmd = &cobra.Command{
	Use:   "note",
	Short: "Render a single record into a note",
	Long: `Renders one record into a note inside the vault.

The record is read from a JSON or YAML file with '--record', or loaded from the database by name with
'--record-name'. Records read from a file are also saved to the database.

Parameters:
  --record <path> (string)
    Path to a JSON or YAML record document.

  --record-name <name> (string)
    Name of a record previously imported with 'records import'.

  --kind <movie|collection|generic> (string, optional)
    How to interpret the record file. Defaults to generic.

  --template <path|name> (string, optional)
    Vault path of the note template, or a built-in name (movie, collection).
    Defaults to the configured template for the record kind; with none the note is a frontmatter block.

  --folder <pattern> (string, optional)
    Vault folder for the note, may contain {{field}} placeholders.

  --overwrite (bool, optional)
    Replace an existing note instead of skipping it.

  --print (bool, optional)
    Return the rendered note in the JSON response instead of writing it.

Example Usage:
  movie-note-core render note --vault ~/Notes --record alien.json --kind movie --template Templates/Movie.md
  movie-note-core render note --record-name Alien --print
`,
	Run: func(cmd *cobra.Command, args []string) {
		stop := logging.LogOperationStart(logging.GetLogger("cmd"), "render note")
		defer stop()

		recordFile := viper.GetString("render.note.record")
		recordName := viper.GetString("render.note.record-name")
		if (recordFile == "") == (recordName == "") {
			printError(fmt.Errorf("exactly one of --record or --record-name is required"))
			return
		}

		db, err := openDB()
		if err != nil {
			printError(err)
			return
		}
		defer db.Close()

		var (
			kind model.Kind
			rec  *record.Record
		)
		if recordFile != "" {
			if kind, err = model.ParseKind(viper.GetString("render.note.kind")); err != nil {
				printError(err)
				return
			}
			if rec, err = readRecordFile(recordFile, kind); err != nil {
				printError(err)
				return
			}
			if _, err := database.SaveRecord(db, string(kind), rec); err != nil {
				printError(err)
				return
			}
		} else {
			stored, err := database.LoadRecord(db, recordName)
			if err != nil {
				printError(err)
				return
			}
			kind, rec = model.Kind(stored.Kind), stored.Record
		}

		v, err := openVault()
		if err != nil {
			printError(err)
			return
		}
		tr := newTranslator()
		templatePath := templateFor(kind, viper.GetString("render.note.template"))

		content, err := newRenderer(v, tr).Render(context.Background(), rec, templatePath)
		if err != nil {
			printError(err)
			return
		}
		if viper.GetBool("render.note.print") {
			printJSON(map[string]interface{}{"name": rec.Name(), "content": content})
			return
		}

		notePath, err := newNamer().NotePath(rec, folderFor(kind, viper.GetString("render.note.folder")))
		if err != nil {
			printError(err)
			return
		}
		if !viper.GetBool("render.note.overwrite") && v.Exists(notePath) {
			printJSON(map[string]interface{}{
				"skipped": true,
				"path":    notePath,
				"message": tr.Tf("notices.noteExists", map[string]string{"name": rec.Name()}),
			})
			return
		}
		if err := v.WriteNote(notePath, content); err != nil {
			printError(err)
			return
		}
		if _, err := database.LogRender(db, database.RenderEntry{
			RecordName: rec.Name(),
			Template:   templatePath,
			OutputPath: notePath,
			SizeBytes:  int64(len(content)),
		}); err != nil {
			printError(err)
			return
		}

		response := map[string]interface{}{
			"path":      notePath,
			"sizeBytes": len(content),
			"size":      humanize.Bytes(uint64(len(content))),
			"message":   tr.Tf("notices.noteCreated", map[string]string{"path": notePath}),
		}
		if kind == model.KindMovie {
			if collection := ensureCollectionNote(db, newCollectionNotes(db, v, tr), tr, rec); collection != nil {
				response["collection"] = collection
			}
		}
		printJSON(response)
	},
}

var renderBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render every record document in a directory",
	Long: `Renders every *.json, *.yaml and *.yml record document found directly inside a directory.

Records are rendered concurrently; each finished record is reported as a progress line on stderr.
Successfully rendered records are saved to the database and added to the render history.
The response contains per-record results, totals and a human readable summary.

Parameters:
  --dir <path> (string, required)
    Directory holding the record documents.

  --kind <movie|collection|generic> (string, optional)
    How to interpret the documents. Defaults to generic.

  --template, --folder, --overwrite
    As for 'render note'.

  --concurrency <n> (int, optional)
    Number of records rendered at once. Defaults to the number of CPUs.

Example Usage:
  movie-note-core render batch --vault ~/Notes --dir ./exports --kind movie --template movie --folder "Movies"
`,
	Run: func(cmd *cobra.Command, args []string) {
		dir := viper.GetString("render.batch.dir")
		if dir == "" {
			printError(fmt.Errorf("--dir is required"))
			return
		}
		kind, err := model.ParseKind(viper.GetString("render.batch.kind"))
		if err != nil {
			printError(err)
			return
		}

		db, err := openDB()
		if err != nil {
			printError(err)
			return
		}
		defer db.Close()
		v, err := openVault()
		if err != nil {
			printError(err)
			return
		}

		printProgress("loading_records", map[string]string{"dir": dir})
		jobs, err := batch.LoadJobs(afero.NewOsFs(), dir, kind)
		if err != nil {
			printError(err)
			return
		}
		printProgress("loaded_records", map[string]int{"count": len(jobs)})

		tr := newTranslator()
		options := batch.Options{
			Template:    templateFor(kind, viper.GetString("render.batch.template")),
			Folder:      folderFor(kind, viper.GetString("render.batch.folder")),
			Overwrite:   viper.GetBool("render.batch.overwrite"),
			Concurrency: viper.GetInt("render.batch.concurrency"),
		}
		runner := batch.NewRunner(newRenderer(v, tr), v, newNamer())
		runner.OnResult = func(res batch.Result) {
			printProgress("rendered_record", res)
			if res.Err != nil {
				reason := res.Error
				if errors.IsErrorCode(res.Err, errors.ErrInvalidRecord) {
					reason = tr.T("errors.invalidRecord")
				}
				printProgress("notice", map[string]string{
					"message": tr.Tf("errors.renderFailed", map[string]string{"name": res.Source, "reason": reason}),
				})
			}
		}

		start := time.Now()
		results := runner.Run(context.Background(), jobs, options)
		elapsed := time.Since(start)

		for _, res := range results {
			if res.Err != nil || res.Skipped {
				continue
			}
			if _, err := database.SaveRecord(db, string(kind), res.Record); err != nil {
				printError(err)
				return
			}
			if _, err := database.LogRender(db, database.RenderEntry{
				RecordName: res.Name,
				Template:   options.Template,
				OutputPath: res.OutputPath,
				SizeBytes:  res.SizeBytes,
			}); err != nil {
				printError(err)
				return
			}
		}

		var collections []*batch.Result
		if kind == model.KindMovie {
			collectionNotes := newCollectionNotes(db, v, tr)
			for _, res := range results {
				if res.Err != nil || res.Skipped {
					continue
				}
				if collection := ensureCollectionNote(db, collectionNotes, tr, res.Record); collection != nil && !collection.Skipped {
					collections = append(collections, collection)
				}
			}
		}

		summary, err := batch.Summary(results, elapsed)
		if err != nil {
			printError(err)
			return
		}
		stats := batch.Tally(results, elapsed)
		printJSON(map[string]interface{}{
			"stats":       stats,
			"results":     results,
			"summary":     summary,
			"collections": collections,
			"message":     tr.Tf("notices.batchDone", map[string]string{
				"ok":    strconv.Itoa(stats.Rendered),
				"total": strconv.Itoa(stats.Total),
			}),
		})
	},
}

func readRecordFile(recordFile string, kind model.Kind) (*record.Record, error) {
	data, err := os.ReadFile(recordFile)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStore, "reading record file %s", recordFile)
	}
	return model.Decode(kind, data)
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.AddCommand(renderNoteCmd)
	renderNoteCmd.Flags().String("record", "", "Path to a JSON or YAML record document")
	renderNoteCmd.Flags().String("record-name", "", "Name of a record stored in the database")
	renderNoteCmd.Flags().String("kind", "generic", "Record kind: movie, collection or generic")
	renderNoteCmd.Flags().String("template", "", "Template vault path or built-in name")
	renderNoteCmd.Flags().String("folder", "", "Vault folder pattern for the note")
	renderNoteCmd.Flags().Bool("overwrite", false, "Replace an existing note")
	renderNoteCmd.Flags().Bool("print", false, "Return the note content instead of writing it")
	viper.BindPFlag("render.note.record", renderNoteCmd.Flags().Lookup("record"))
	viper.BindPFlag("render.note.record-name", renderNoteCmd.Flags().Lookup("record-name"))
	viper.BindPFlag("render.note.kind", renderNoteCmd.Flags().Lookup("kind"))
	viper.BindPFlag("render.note.template", renderNoteCmd.Flags().Lookup("template"))
	viper.BindPFlag("render.note.folder", renderNoteCmd.Flags().Lookup("folder"))
	viper.BindPFlag("render.note.overwrite", renderNoteCmd.Flags().Lookup("overwrite"))
	viper.BindPFlag("render.note.print", renderNoteCmd.Flags().Lookup("print"))

	renderCmd.AddCommand(renderBatchCmd)
	renderBatchCmd.Flags().String("dir", "", "Directory of record documents")
	renderBatchCmd.Flags().String("kind", "generic", "Record kind: movie, collection or generic")
	renderBatchCmd.Flags().String("template", "", "Template vault path or built-in name")
	renderBatchCmd.Flags().String("folder", "", "Vault folder pattern for the notes")
	renderBatchCmd.Flags().Bool("overwrite", false, "Replace existing notes")
	renderBatchCmd.Flags().Int("concurrency", 0, "Records rendered at once (default: number of CPUs)")
	viper.BindPFlag("render.batch.dir", renderBatchCmd.Flags().Lookup("dir"))
	viper.BindPFlag("render.batch.kind", renderBatchCmd.Flags().Lookup("kind"))
	viper.BindPFlag("render.batch.template", renderBatchCmd.Flags().Lookup("template"))
	viper.BindPFlag("render.batch.folder", renderBatchCmd.Flags().Lookup("folder"))
	viper.BindPFlag("render.batch.overwrite", renderBatchCmd.Flags().Lookup("overwrite"))
	viper.BindPFlag("render.batch.concurrency", renderBatchCmd.Flags().Lookup("concurrency"))
}
