// File: cmd/common.go
package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"movie-note-core/pkg/batch"
	"movie-note-core/pkg/database"
	"movie-note-core/pkg/datetoken"
	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/filter"
	"movie-note-core/pkg/i18n"
	"movie-note-core/pkg/logging"
	"movie-note-core/pkg/model"
	"movie-note-core/pkg/record"
	"movie-note-core/pkg/render"
	"movie-note-core/pkg/vault"
	"movie-note-core/templates"
)

type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func printJSON(data interface{}) {
	resp := Response{Status: "success", Data: data}
	bytes, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		printError(fmt.Errorf("failed to marshal JSON response: %w", err))
		return
	}
	fmt.Println(string(bytes))
}

func printError(err error) {
	resp := ErrorResponse{Status: "error", Message: err.Error()}
	if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
		resp.Code = string(code)
	}
	logger := logging.GetLogger("cmd")
	logger.Debug().Err(err).Msg("Command failed")
	bytes, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Fprintln(os.Stderr, string(bytes))
	os.Exit(1)
}

// printProgress writes a structured progress line to stderr for callers
// that drive the CLI from a UI.
func printProgress(status string, data interface{}) {
	progress := map[string]interface{}{"type": "progress", "status": status, "data": data}
	bytes, _ := json.Marshal(progress)
	fmt.Fprintln(os.Stderr, string(bytes))
}

func openDB() (*sql.DB, error) {
	db, err := database.InitializeDB(viper.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	return db, nil
}

func openVault() (*vault.Vault, error) {
	return vault.Open(viper.GetString("vault"))
}

func newTranslator() *i18n.Translator {
	tr, err := i18n.New(viper.GetString("locale"))
	if err != nil {
		printError(err)
	}
	return tr
}

// newRenderer wires a renderer that resolves built-in template names first
// and reports template problems as progress notices.
func newRenderer(v *vault.Vault, tr *i18n.Translator) *render.Renderer {
	return render.New(templates.NewReader(v),
		render.WithTranslator(tr),
		render.WithNotifier(render.NotifyFunc(func(message string) {
			printProgress("notice", map[string]string{"message": message})
		})),
	)
}

func newNamer() vault.Namer {
	return vault.Namer{
		Format: viper.GetString("render.file-name-format"),
		Dates:  datetoken.New(nil),
	}
}

// newCollectionNotes returns nil when collections.auto-create is off.
func newCollectionNotes(db *sql.DB, v *vault.Vault, tr *i18n.Translator) *batch.CollectionNotes {
	if !viper.GetBool("collections.auto-create") {
		return nil
	}
	return &batch.CollectionNotes{
		Renderer: newRenderer(v, tr),
		Notes:    v,
		Namer:    newNamer(),
		Find: func(id int64) (*record.Record, error) {
			stored, err := database.FindRecordByField(db, string(model.KindCollection), "id", id)
			if errors.IsErrorCode(err, errors.ErrRecordNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return stored.Record, nil
		},
		Template: templateFor(model.KindCollection, ""),
		Folder:   folderFor(model.KindCollection, ""),
	}
}

// ensureCollectionNote creates the note of the collection movie belongs to
// and records it in the render history. Failures are reported as notices;
// the movie note is already written at this point.
func ensureCollectionNote(db *sql.DB, notes *batch.CollectionNotes, tr *i18n.Translator, movie *record.Record) *batch.Result {
	if notes == nil {
		return nil
	}
	res, err := notes.Ensure(context.Background(), movie)
	if err != nil {
		logger := logging.GetLogger("cmd")
		logger.Warn().Err(err).Str("movie", movie.Name()).Msg("Collection note not created")
		printProgress("notice", map[string]string{
			"message": tr.Tf("errors.renderFailed", map[string]string{"name": movie.Name(), "reason": err.Error()}),
		})
		return nil
	}
	if res == nil || res.Skipped {
		return res
	}
	if _, err := database.LogRender(db, database.RenderEntry{
		RecordName: res.Name,
		Template:   notes.Template,
		OutputPath: res.OutputPath,
		SizeBytes:  res.SizeBytes,
	}); err != nil {
		logger := logging.GetLogger("cmd")
		logger.Warn().Err(err).Str("collection", res.Name).Msg("Failed to log collection render")
	}
	printProgress("notice", map[string]string{
		"message": tr.Tf("notices.collectionCreated", map[string]string{"path": res.OutputPath}),
	})
	return res
}

// templateFor returns the template flag value, falling back to the
// configured template for kind. "" means frontmatter only.
func templateFor(kind model.Kind, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString("templates." + string(kind))
}

func folderFor(kind model.Kind, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString("folders." + string(kind))
}

// parseFilter builds a filter.Filter from a JSON flag value; "" selects
// everything.
func parseFilter(filterJSON string) (filter.Filter, error) {
	var f filter.Filter
	if filterJSON == "" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(filterJSON), &f); err != nil {
		return f, errors.Wrap(err, errors.ErrDecode, "error parsing filter JSON")
	}
	return f, nil
}
