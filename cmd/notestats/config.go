package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"notestats/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage notestats configuration.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (NOTE_COOKIE, NOTE_USERNAME, COOKIE_SET_DATE, NOTESTATS_*)
  - .env file
  - Configuration file (.notestats.yaml)
  - Default values`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Run:   runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after merging all sources.
The session cookie is masked.`,
	Run: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

const exampleConfig = `# notestats configuration file
#
# Credentials are usually provided through environment variables so they
# stay out of version control:
#   NOTE_COOKIE      full browser Cookie header for a logged-in session
#   NOTE_USERNAME    account urlname
#   COOKIE_SET_DATE  when the cookie was captured (YYYY-MM-DD)

note:
  username: ""
  user_agent: "note-stats-tracker"
  request_timeout: 30s

output:
  data_directory: "./data"
  articles_file: "articles.csv"
  summary_file: "daily_summary.csv"
  likes_file: "likes.csv"

likes:
  page_size: 50
  page_delay: 1s
  article_delay: 1.5s

logging:
  level: "info"
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".notestats.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to write configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Created %s", configPath))
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Never print the cookie itself
	display := *cfg
	if display.Note.Cookie != "" {
		display.Note.Cookie = "********"
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to render configuration", err.Error())
		os.Exit(1)
	}

	fmt.Print(string(data))
}
