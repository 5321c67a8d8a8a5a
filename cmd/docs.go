package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"movie-note-core/templates"
)

var docsCmd = &cobra.Command{
	Use:    "docs",
	Short:  "Generate documentation for the application",
	Long:   `This command group contains utilities for generating documentation.`,
	Hidden: true,
}

var docsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all command documentation to a Markdown file",
	Long: `Exports the help text of every command, the configuration keys with their current values and the
built-in note templates into a single Markdown file.`,
	Run: func(cmd *cobra.Command, args []string) {
		outputFile := viper.GetString("docs.export.output")
		f, err := os.Create(outputFile)
		if err != nil {
			printError(fmt.Errorf("failed to create output file: %w", err))
			return
		}
		defer f.Close()

		generationTime := time.Now().Format("2006-01-02 15:04:05 MST")
		fmt.Fprintln(f, "# Movie Note Core - CLI Documentation")
		fmt.Fprintf(f, "\n> Generated on: %s\n\n", generationTime)

		if err := generateDocForCmd(rootCmd, f); err != nil {
			printError(fmt.Errorf("failed to generate documentation: %w", err))
			return
		}
		writeConfigKeys(f)
		writeBuiltInTemplates(f)

		printJSON(map[string]string{
			"message":    "Documentation generated successfully",
			"outputPath": outputFile,
		})
	},
}

func generateDocForCmd(cmd *cobra.Command, w io.Writer) error {
	if !cmd.IsAvailableCommand() || cmd.IsAdditionalHelpTopicCommand() {
		return nil
	}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.Help()
	level := strings.Count(cmd.CommandPath(), " ")
	header := strings.Repeat("#", level+2)
	if level == 0 {
		fmt.Fprintf(w, "# %s (Root Command)\n\n", cmd.CommandPath())
	} else {
		fmt.Fprintf(w, "\n---\n\n%s %s\n\n", header, cmd.CommandPath())
	}
	fmt.Fprintf(w, "```text\n%s\n```", buf.String())
	for _, subCmd := range cmd.Commands() {
		if err := generateDocForCmd(subCmd, w); err != nil {
			return err
		}
	}
	return nil
}

func writeConfigKeys(w io.Writer) {
	keys := viper.AllKeys()
	sort.Strings(keys)
	fmt.Fprint(w, "\n---\n\n## Configuration keys\n\n| Key | Current value |\n|---|---|\n")
	for _, key := range keys {
		fmt.Fprintf(w, "| `%s` | `%v` |\n", key, viper.Get(key))
	}
}

func writeBuiltInTemplates(w io.Writer) {
	fmt.Fprint(w, "\n## Built-in note templates\n")
	for _, t := range templates.BuiltInTemplates {
		content, _ := templates.BuiltIn(t.Name)
		fmt.Fprintf(w, "\n### %s\n\n%s\n\n```markdown\n%s```\n", t.Name, t.Description, content)
	}
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsExportCmd)
	docsExportCmd.Flags().StringP("output", "o", "CLIDocumentation.md", "Output file for the generated Markdown documentation")
	viper.BindPFlag("docs.export.output", docsExportCmd.Flags().Lookup("output"))
}
