package tracker

import (
	"fmt"

	"notestats/pkg/config"
	"notestats/pkg/logger"
	"notestats/pkg/note"
	"notestats/pkg/snapshot"
	"notestats/pkg/storage"
)

// Tracker runs the daily collection: one pass through verify, fetch,
// build, append. No concurrency and no retries; any failure aborts the
// run and the scheduler marks it failed.
type Tracker struct {
	cfg    *config.Config
	client *note.Client
	store  *storage.Manager
	logger logger.Logger
}

// RunResult summarizes one completed daily run
type RunResult struct {
	Date          string
	ArticleCount  int
	TotalViews    int
	TotalLikes    int
	TotalComments int
	FollowerCount int
}

// New creates a tracker from the loaded configuration
func New(cfg *config.Config, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.GetLogger()
	}

	client := note.NewClient(cfg.Note.Cookie, cfg.Note.UserAgent, cfg.Note.RequestTimeout, log)
	client.SetPageDelay(cfg.Likes.PageDelay)

	return &Tracker{
		cfg:    cfg,
		client: client,
		store: storage.NewManager(
			cfg.ArticlesPath(),
			cfg.SummaryPath(),
			cfg.LikesPath(),
		),
		logger: log,
	}
}

// Client returns the underlying API client (tests point it at a mock server)
func (t *Tracker) Client() *note.Client {
	return t.client
}

// Store returns the underlying CSV store
func (t *Tracker) Store() *storage.Manager {
	return t.store
}

// Run performs one daily collection for the given date. The articles file
// is written before the summary file; if the process dies between the two
// appends the partial rows stay, and a rerun on the same date appends a
// second dated set rather than replacing the first.
func (t *Tracker) Run(date string) (*RunResult, error) {
	t.logger.WithField("date", date).Info("starting daily collection")

	if err := t.client.VerifyAuth(); err != nil {
		return nil, fmt.Errorf("auth check failed: %w", err)
	}

	articles, totals, err := t.client.FetchStats()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article stats: %w", err)
	}

	followerCount, err := t.client.FetchFollowerCount(t.cfg.Note.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch follower count: %w", err)
	}

	snapshots, summary := snapshot.Build(date, articles, followerCount)

	// The summary row is built from the article rows, so the two files
	// reconcile by construction. The API's own totals can drift while a
	// paginated listing is in flight; note it but trust the rows.
	if totals.TotalPV != summary.TotalViews || totals.TotalLike != summary.TotalLikes {
		t.logger.DebugWithFields("API totals differ from summed article stats", map[string]interface{}{
			"api_total_pv":     totals.TotalPV,
			"api_total_like":   totals.TotalLike,
			"summed_views":     summary.TotalViews,
			"summed_likes":     summary.TotalLikes,
		})
	}

	if err := t.store.AppendArticles(snapshots); err != nil {
		return nil, fmt.Errorf("failed to append article snapshots: %w", err)
	}
	if err := t.store.AppendSummary(summary); err != nil {
		return nil, fmt.Errorf("failed to append daily summary: %w", err)
	}

	result := &RunResult{
		Date:          date,
		ArticleCount:  summary.ArticleCount,
		TotalViews:    summary.TotalViews,
		TotalLikes:    summary.TotalLikes,
		TotalComments: summary.TotalComments,
		FollowerCount: summary.FollowerCount,
	}

	t.logger.InfoWithFields("daily collection completed", map[string]interface{}{
		"date":      result.Date,
		"articles":  result.ArticleCount,
		"views":     result.TotalViews,
		"likes":     result.TotalLikes,
		"followers": result.FollowerCount,
	})

	return result, nil
}
