package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"movie-note-core/pkg/database"
	"movie-note-core/pkg/model"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage the imported records",
	Long:  `The "records" command group imports record documents into the database, lists and inspects them, and shows the render history.`,
}

var recordsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a record document into the database",
	Long: `Decodes a JSON or YAML record document and stores it under its name, replacing any record with the same name.

Movie and collection documents get their derived fields (list "_string" companions, JustWatch id) filled in.

Example Usage:
  movie-note-core records import --file alien.json --kind movie`,
	Run: func(cmd *cobra.Command, args []string) {
		recordFile := viper.GetString("records.import.file")
		if recordFile == "" {
			printError(fmt.Errorf("--file is required"))
			return
		}
		kind, err := model.ParseKind(viper.GetString("records.import.kind"))
		if err != nil {
			printError(err)
			return
		}
		rec, err := readRecordFile(recordFile, kind)
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

		id, err := database.SaveRecord(db, string(kind), rec)
		if err != nil {
			printError(err)
			return
		}
		printJSON(map[string]interface{}{
			"id":     id,
			"name":   rec.Name(),
			"kind":   kind,
			"fields": rec.Len(),
		})
	},
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the imported records",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := openDB()
		if err != nil {
			printError(err)
			return
		}
		defer db.Close()

		summaries, err := database.ListRecords(db, viper.GetString("records.list.kind"))
		if err != nil {
			printError(err)
			return
		}

		type recordListOutput struct {
			database.RecordSummary
			Size     string `json:"size"`
			Imported string `json:"imported"`
		}
		output := make([]recordListOutput, 0, len(summaries))
		for _, s := range summaries {
			output = append(output, recordListOutput{
				RecordSummary: s,
				Size:          humanize.Bytes(uint64(s.SizeBytes)),
				Imported:      humanize.Time(s.ImportedAt),
			})
		}
		printJSON(output)
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one imported record with its fields",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := openDB()
		if err != nil {
			printError(err)
			return
		}
		defer db.Close()

		stored, err := database.LoadRecord(db, viper.GetString("records.show.name"))
		if err != nil {
			printError(err)
			return
		}
		printJSON(stored)
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an imported record",
	Long:  `Deletes a record from the database. Notes already rendered from it and its render history are kept.`,
	Run: func(cmd *cobra.Command, args []string) {
		name := viper.GetString("records.delete.name")
		db, err := openDB()
		if err != nil {
			printError(err)
			return
		}
		defer db.Close()

		if err := database.DeleteRecord(db, name); err != nil {
			printError(err)
			return
		}
		printJSON(fmt.Sprintf("Record '%s' was deleted.", name))
	},
}

var recordsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the render history",
	Long: `Lists rendered notes, newest first, optionally for a single record.

Example Usage:
  movie-note-core records history --name Alien --limit 5`,
	Run: func(cmd *cobra.Command, args []string) {
		db, err := openDB()
		if err != nil {
			printError(err)
			return
		}
		defer db.Close()

		entries, err := database.ListRenders(db, viper.GetString("records.history.name"), viper.GetInt("records.history.limit"))
		if err != nil {
			printError(err)
			return
		}
		printJSON(entries)
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.AddCommand(recordsImportCmd)
	recordsImportCmd.Flags().String("file", "", "Path to a JSON or YAML record document")
	recordsImportCmd.Flags().String("kind", "generic", "Record kind: movie, collection or generic")
	viper.BindPFlag("records.import.file", recordsImportCmd.Flags().Lookup("file"))
	viper.BindPFlag("records.import.kind", recordsImportCmd.Flags().Lookup("kind"))

	recordsCmd.AddCommand(recordsListCmd)
	recordsListCmd.Flags().String("kind", "", "Only list records of this kind")
	viper.BindPFlag("records.list.kind", recordsListCmd.Flags().Lookup("kind"))

	recordsCmd.AddCommand(recordsShowCmd)
	recordsShowCmd.Flags().String("name", "", "Record name")
	recordsShowCmd.MarkFlagRequired("name")
	viper.BindPFlag("records.show.name", recordsShowCmd.Flags().Lookup("name"))

	recordsCmd.AddCommand(recordsDeleteCmd)
	recordsDeleteCmd.Flags().String("name", "", "Record name")
	recordsDeleteCmd.MarkFlagRequired("name")
	viper.BindPFlag("records.delete.name", recordsDeleteCmd.Flags().Lookup("name"))

	recordsCmd.AddCommand(recordsHistoryCmd)
	recordsHistoryCmd.Flags().String("name", "", "Only show renders of this record")
	recordsHistoryCmd.Flags().Int("limit", 20, "Maximum number of entries (0 for all)")
	viper.BindPFlag("records.history.name", recordsHistoryCmd.Flags().Lookup("name"))
	viper.BindPFlag("records.history.limit", recordsHistoryCmd.Flags().Lookup("limit"))
}
