package snapshot

import (
	"time"

	"notestats/pkg/models"
)

// DateFormat is the date layout used in both CSV files
const DateFormat = "2006-01-02"

// JST is the timezone the run date is taken in, matching the platform's
// own daily boundaries
var JST = time.FixedZone("JST", 9*60*60)

// Today returns the current date in JST as a CSV date string
func Today() string {
	return time.Now().In(JST).Format(DateFormat)
}

// Build produces one ArticleSnapshot per article and one DailySummary for
// the given run date. The summary totals are the sums over the article
// rows, so the two files always reconcile for a date written by one run.
func Build(date string, articles []models.ArticleStat, followerCount int) ([]models.ArticleSnapshot, models.DailySummary) {
	snapshots := make([]models.ArticleSnapshot, 0, len(articles))
	summary := models.DailySummary{
		Date:          date,
		ArticleCount:  len(articles),
		FollowerCount: followerCount,
	}

	for _, article := range articles {
		snapshots = append(snapshots, models.ArticleSnapshot{
			Date:         date,
			ArticleID:    article.ID,
			Key:          article.Key,
			Title:        article.Name,
			ViewCount:    article.ReadCount,
			LikeCount:    article.LikeCount,
			CommentCount: article.CommentCount,
		})

		summary.TotalViews += article.ReadCount
		summary.TotalLikes += article.LikeCount
		summary.TotalComments += article.CommentCount
	}

	return snapshots, summary
}
