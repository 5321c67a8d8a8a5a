package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"movie-note-core/pkg/database"
	"movie-note-core/pkg/filter"
	"movie-note-core/pkg/scanner"
	"movie-note-core/pkg/vault"
	"movie-note-core/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Discover note templates",
	Long:  `The "templates" command group lists the built-in note templates and keeps a cache of the templates found in the vault.`,
}

var templatesScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the vault for note templates (full or incremental)",
	Long: `Walks the vault and records every Markdown file that can serve as a note template.

By default, this command ignores the vault's configuration and trash folders (.obsidian, .trash, .git, ...)
and respects the vault's .gitignore rules. Use flags to modify this behavior.

Parameters:
  --incremental (bool, optional)
    Only write the templates that were added, modified or removed since the last scan.

  --no-preset-excludes (bool, optional)
    Also scan the folders that are excluded by default.

  --no-git-ignores (bool, optional)
    Disable automatic parsing of the vault's .gitignore file.

Example Usage:
  movie-note-core templates scan --vault ~/Notes --incremental
`,
	Run: func(cmd *cobra.Command, args []string) {
		v, err := openVault()
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

		scanOpts := scanner.ScanOptions{
			NoGitIgnores:     viper.GetBool("templates.scan.no-git-ignores"),
			NoPresetExcludes: viper.GetBool("templates.scan.no-preset-excludes"),
		}
		result, count, err := syncTemplates(db, v, scanOpts, viper.GetBool("templates.scan.incremental"))
		if err != nil {
			printError(err)
			return
		}

		status := "template cache updated"
		if !result.Changed() {
			status = "template cache is up-to-date"
		}
		printJSON(map[string]interface{}{
			"status":         status,
			"filesScanned":   count,
			"files_added":    result.Added,
			"files_modified": result.Modified,
			"files_deleted":  result.Deleted,
		})
	},
}

func syncTemplates(db *sql.DB, v *vault.Vault, scanOpts scanner.ScanOptions, incremental bool) (database.SyncResult, int, error) {
	printProgress("scanning_vault", scanOpts)
	files, err := v.Templates(context.Background(), scanOpts)
	if err != nil {
		return database.SyncResult{}, 0, fmt.Errorf("error scanning vault: %w", err)
	}
	printProgress("finished_scanning_vault", map[string]int{"count": len(files)})

	result, err := database.SyncTemplateFiles(db, files, incremental)
	if err != nil {
		return database.SyncResult{}, 0, err
	}
	printProgress("synced_template_cache", result)
	return result, len(files), nil
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and vault note templates",
	Long: `Displays the built-in note templates followed by the vault templates known to the template cache.
The cache is filled by 'templates scan'; when it is empty a full scan is run first.

The vault templates can be filtered with '--filter-json':
{
  "excludedPrefixes": ["Archive/"],
  "excludedExtensions": ["txt"],
  "contains": "movie",
  "onlyWithPlaceholders": true
}

The returned JSON format is as follows:
{
  "status": "success",
  "data": {
    "builtIn": [{"name": "movie", "description": "..."}],
    "vault": ["Templates/Movie.md"]
  }
}`,
	Run: func(cmd *cobra.Command, args []string) {
		type templateListOutput struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		builtIn := make([]templateListOutput, 0, len(templates.BuiltInTemplates))
		for _, t := range templates.BuiltInTemplates {
			builtIn = append(builtIn, templateListOutput{Name: t.Name, Description: t.Description})
		}

		f, err := parseFilter(viper.GetString("templates.list.filter-json"))
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

		cached, err := database.ListTemplateFiles(db)
		if err != nil {
			printError(err)
			return
		}
		if len(cached) == 0 {
			v, err := openVault()
			if err != nil {
				printError(err)
				return
			}
			if _, _, err := syncTemplates(db, v, scanner.ScanOptions{}, false); err != nil {
				printError(err)
				return
			}
		}

		paths, err := filter.GetFilteredTemplatePaths(db, f)
		if err != nil {
			printError(err)
			return
		}
		printJSON(map[string]interface{}{
			"builtIn": builtIn,
			"vault":   paths,
		})
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)

	templatesCmd.AddCommand(templatesScanCmd)
	templatesScanCmd.Flags().Bool("incremental", false, "Perform an incremental scan instead of a full one")
	templatesScanCmd.Flags().Bool("no-git-ignores", false, "Disable .gitignore file parsing")
	templatesScanCmd.Flags().Bool("no-preset-excludes", false, "Disable the default exclusion of vault system folders")
	viper.BindPFlag("templates.scan.incremental", templatesScanCmd.Flags().Lookup("incremental"))
	viper.BindPFlag("templates.scan.no-git-ignores", templatesScanCmd.Flags().Lookup("no-git-ignores"))
	viper.BindPFlag("templates.scan.no-preset-excludes", templatesScanCmd.Flags().Lookup("no-preset-excludes"))

	templatesCmd.AddCommand(templatesListCmd)
	templatesListCmd.Flags().String("filter-json", "", "JSON filter for the vault templates")
	viper.BindPFlag("templates.list.filter-json", templatesListCmd.Flags().Lookup("filter-json"))
}
