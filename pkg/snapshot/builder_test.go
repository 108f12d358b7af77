package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notestats/pkg/models"
)

func TestBuild(t *testing.T) {
	articles := []models.ArticleStat{
		{ID: 101, Key: "n1aaa", Name: "First post", ReadCount: 10, LikeCount: 2, CommentCount: 1},
		{ID: 102, Key: "n2bbb", Name: "Second post", ReadCount: 5, LikeCount: 1, CommentCount: 0},
	}

	snapshots, summary := Build("2026-02-07", articles, 100)

	require.Len(t, snapshots, 2)
	assert.Equal(t, models.ArticleSnapshot{
		Date:         "2026-02-07",
		ArticleID:    101,
		Key:          "n1aaa",
		Title:        "First post",
		ViewCount:    10,
		LikeCount:    2,
		CommentCount: 1,
	}, snapshots[0])
	assert.Equal(t, "2026-02-07", snapshots[1].Date)

	assert.Equal(t, "2026-02-07", summary.Date)
	assert.Equal(t, 2, summary.ArticleCount)
	assert.Equal(t, 15, summary.TotalViews)
	assert.Equal(t, 3, summary.TotalLikes)
	assert.Equal(t, 1, summary.TotalComments)
	assert.Equal(t, 100, summary.FollowerCount)
}

func TestBuildEmptyAccount(t *testing.T) {
	snapshots, summary := Build("2026-02-07", nil, 42)

	assert.Empty(t, snapshots)
	assert.Equal(t, 0, summary.ArticleCount)
	assert.Equal(t, 0, summary.TotalViews)
	assert.Equal(t, 0, summary.TotalLikes)
	assert.Equal(t, 0, summary.TotalComments)
	assert.Equal(t, 42, summary.FollowerCount)
}

// Summary totals are defined as the sums over the article rows, not the
// account totals the API reports, so the two files always reconcile
func TestBuildTotalsMatchRowSums(t *testing.T) {
	articles := []models.ArticleStat{
		{ID: 1, Key: "na", ReadCount: 7, LikeCount: 3, CommentCount: 2},
		{ID: 2, Key: "nb", ReadCount: 0, LikeCount: 0, CommentCount: 0},
		{ID: 3, Key: "nc", ReadCount: 123, LikeCount: 45, CommentCount: 6},
	}

	snapshots, summary := Build("2026-02-07", articles, 0)

	var views, likes, comments int
	for _, s := range snapshots {
		views += s.ViewCount
		likes += s.LikeCount
		comments += s.CommentCount
	}
	assert.Equal(t, views, summary.TotalViews)
	assert.Equal(t, likes, summary.TotalLikes)
	assert.Equal(t, comments, summary.TotalComments)
}

func TestToday(t *testing.T) {
	got := Today()

	parsed, err := time.Parse(DateFormat, got)
	require.NoError(t, err)
	assert.Equal(t, got, parsed.Format(DateFormat))

	want := time.Now().In(JST).Format(DateFormat)
	assert.Equal(t, want, got)
}
