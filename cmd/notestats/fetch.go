package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"notestats/pkg/auth"
	"notestats/pkg/config"
	"notestats/pkg/logger"
	"notestats/pkg/snapshot"
	"notestats/pkg/tracker"
	"notestats/pkg/ui"
)

var (
	fetchDate    string
	fetchAccount string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Collect today's article stats and follower count",
	Long: `Collect the current view/like/comment counts for every article and
the account follower count, and append them as dated rows to
articles.csv and daily_summary.csv.

One row per article plus one summary row is appended per run. Running
twice on the same date appends a second dated set; the tool does not
deduplicate, the scheduler is expected to run it once per day.`,
	Example: `  # Daily collection (scheduler entry point)
  notestats fetch

  # Backfill-style run with an explicit date
  notestats fetch --date 2026-02-07

  # Use credentials stored with 'notestats auth login'
  notestats fetch --account myname`,
	Run: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchDate, "date", "", "snapshot date (YYYY-MM-DD, default: today in JST)")
	fetchCmd.Flags().StringVarP(&fetchAccount, "account", "a", "", "use a specific stored account")
}

func runFetch(cmd *cobra.Command, args []string) {
	cfg, account := mustLoadRunConfig(fetchAccount)
	log := logger.GetLogger()

	date := fetchDate
	if date == "" {
		date = snapshot.Today()
	} else if _, err := time.Parse(snapshot.DateFormat, date); err != nil {
		ui.PrintError("Invalid --date value", fetchDate)
		os.Exit(1)
	}
	ui.PrintInfo("Snapshot date", date)

	account.CheckExpiry(time.Now().In(snapshot.JST), log)

	result, err := tracker.New(cfg, log).Run(date)
	if err != nil {
		log.WithError(err).Error("daily collection failed")
		ui.PrintError("Collection failed", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Articles", fmt.Sprintf("%d", result.ArticleCount))
	ui.PrintInfo("Total views", fmt.Sprintf("%d", result.TotalViews))
	ui.PrintInfo("Total likes", fmt.Sprintf("%d", result.TotalLikes))
	ui.PrintInfo("Followers", fmt.Sprintf("%d", result.FollowerCount))
	ui.PrintSuccess("Collection completed")
}

// mustLoadRunConfig loads the configuration and resolves credentials for
// a collection run, exiting non-zero before any file is touched when the
// cookie or username is missing.
func mustLoadRunConfig(accountName string) (*config.Config, *auth.Account) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Environment (or config file) credentials take priority; stored
	// accounts are the fallback for interactive use.
	account := &auth.Account{
		Username: cfg.Note.Username,
		Cookie:   cfg.Note.Cookie,
		SetDate:  cfg.Note.CookieSetDate,
	}

	if account.Cookie == "" || accountName != "" {
		manager, err := auth.NewManager()
		if err != nil {
			ui.PrintError("Failed to initialize credential manager", err.Error())
			os.Exit(1)
		}

		name := accountName
		if name == "" {
			name = account.Username
		}
		stored, err := manager.Retrieve(name)
		if err == nil {
			account = stored
		}
	}

	if account.Cookie == "" || account.Username == "" {
		log.Error("missing note credentials")
		ui.PrintError("Missing credentials",
			"set NOTE_COOKIE and NOTE_USERNAME, or store them with 'notestats auth login'")
		os.Exit(1)
	}

	if err := auth.ValidateCookie(account.Cookie, log); err != nil {
		log.WithError(err).Error("session cookie failed validation")
		ui.PrintError("Invalid session cookie", err.Error())
		os.Exit(1)
	}

	cfg.Note.Cookie = account.Cookie
	cfg.Note.Username = account.Username
	cfg.Note.CookieSetDate = account.SetDate

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Invalid configuration", err.Error())
		os.Exit(1)
	}

	return cfg, account
}
