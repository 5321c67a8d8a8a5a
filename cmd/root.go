package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"movie-note-core/pkg/logging"
)

const appName = "movie-note-core"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Render movie and collection records into Markdown notes.",
	Long: `Movie Note Core turns movie and collection records into Markdown notes inside a vault.

Records are rendered through note templates that may use {{field}} placeholders, YAML list expansion
and {{date}} tokens. Without a template a note consists of a frontmatter block built from the record.
Imported records and the render history are kept in a local SQLite database.
All configurations can be managed via a central configuration file or overridden by command-line flags.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/movie-note-core/config.yaml)")
	rootCmd.PersistentFlags().String("db", filepath.Join(xdg.DataHome, appName, "notes.db"), "Path to the database file")
	rootCmd.PersistentFlags().String("vault", ".", "Path to the vault directory")
	rootCmd.PersistentFlags().String("locale", "en", "Locale of user facing notices")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("vault", rootCmd.PersistentFlags().Lookup("vault"))
	viper.BindPFlag("locale", rootCmd.PersistentFlags().Lookup("locale"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.SetDefault("collections.auto-create", true)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configPath := filepath.Join(xdg.ConfigHome, appName)
		viper.AddConfigPath(configPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		ensureDefaultConfig(configPath)
	}
	viper.SetEnvPrefix("MOVIE_NOTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	readErr := viper.ReadInConfig()

	logging.SetupLogger(viper.GetInt("verbose"))
	if readErr != nil {
		if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
			logger := logging.GetLogger("config")
			logger.Warn().Err(readErr).Msg("Error reading config file")
		}
	} else {
		logger := logging.GetLogger("config")
		logger.Debug().Str("file", viper.ConfigFileUsed()).Msg("Config loaded")
	}
}

func ensureDefaultConfig(configPath string) {
	configFilePath := filepath.Join(configPath, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(configPath, 0755); err != nil {
			fmt.Fprintln(os.Stderr, "Error creating config directory:", err)
			return
		}
	}
	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		defaultConfig := []byte(`# Default configuration for movie-note-core
# You can override any command-line flag here.
# The key is constructed as command.subcommand.flagname

locale: en

# Note folders per record kind. Patterns may use {{field}} placeholders.
folders:
  movie: ""
  collection: ""

# Default note templates per record kind: a vault path or a built-in name
# (movie, collection). Empty renders the frontmatter block only.
templates:
  movie: ""
  collection: ""

# Rendering a movie that belongs to an imported collection also creates the
# collection note when it does not exist yet.
collections:
  auto-create: true

render:
  # Optional file name pattern, e.g. "{{title}} ({{date:YYYY}})".
  file-name-format: ""
  batch:
    concurrency: 4
`)
		os.WriteFile(configFilePath, defaultConfig, 0644)
	}
}
