package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notestats/pkg/logger"
	"notestats/pkg/tracker"
	"notestats/pkg/ui"
)

var likesAccount string

// likesCmd represents the likes command
var likesCmd = &cobra.Command{
	Use:   "likes",
	Short: "Record who liked which article",
	Long: `Record per-article like details (user, timestamp) in likes.csv.

The first run takes a baseline of every article's likes. Later runs
compare the two most recent dates in articles.csv and only fetch the
articles whose like count grew, so at least two stats collections are
needed before the diff mode does anything.

Already-recorded (article, user) pairs are never appended twice.`,
	Example: `  # Collect new likes after the daily fetch
  notestats likes`,
	Run: runLikes,
}

func init() {
	rootCmd.AddCommand(likesCmd)

	likesCmd.Flags().StringVarP(&likesAccount, "account", "a", "", "use a specific stored account")
}

func runLikes(cmd *cobra.Command, args []string) {
	cfg, _ := mustLoadRunConfig(likesAccount)
	log := logger.GetLogger()

	result, err := tracker.New(cfg, log).CollectLikes()
	if err != nil {
		log.WithError(err).Error("likes collection failed")
		ui.PrintError("Likes collection failed", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Mode", result.Mode)
	ui.PrintInfo("Articles checked", fmt.Sprintf("%d", result.ArticlesChecked))
	ui.PrintInfo("New likes", fmt.Sprintf("%d", result.NewLikes))
	ui.PrintSuccess("Likes collection completed")
}
