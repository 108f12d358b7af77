package models

// ArticleStat is one article's current engagement counts as reported by
// the stats API
type ArticleStat struct {
	ID           int64  `json:"id"`
	Key          string `json:"key"`
	Name         string `json:"name"`
	ReadCount    int    `json:"read_count"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
}

// StatsTotals are the account-wide totals reported alongside the article
// stats
type StatsTotals struct {
	TotalPV      int `json:"total_pv"`
	TotalLike    int `json:"total_like"`
	TotalComment int `json:"total_comment"`
}

// ArticleSnapshot is one dated measurement of an article's metrics.
// Rows are append-only; a snapshot is never mutated once written.
type ArticleSnapshot struct {
	Date         string
	ArticleID    int64
	Key          string
	Title        string
	ViewCount    int
	LikeCount    int
	CommentCount int
}

// DailySummary aggregates one day's article snapshots plus the account
// follower count
type DailySummary struct {
	Date          string
	ArticleCount  int
	TotalViews    int
	TotalLikes    int
	TotalComments int
	FollowerCount int
}

// Like is one user's like on one article, recorded at most once per
// (article, user) pair
type Like struct {
	NoteKey       string
	UserID        string
	Username      string
	URLName       string
	LikedAt       string
	FollowerCount int
}
