package note

import "notestats/pkg/models"

// statsResponse is the wire shape of the stats listing endpoint.
// NoteStats is a pointer so a response without the note_stats key (an
// expired session answers 200 with a stripped body) can be told apart
// from an authenticated response with zero articles.
type statsResponse struct {
	Data *statsData `json:"data"`
}

type statsData struct {
	NoteStats    *[]models.ArticleStat `json:"note_stats"`
	LastPage     bool                  `json:"last_page"`
	TotalPV      int                   `json:"total_pv"`
	TotalLike    int                   `json:"total_like"`
	TotalComment int                   `json:"total_comment"`
}

// hasStats reports whether the response carried a stats payload
func (r *statsResponse) hasStats() bool {
	return r.Data != nil && r.Data.NoteStats != nil
}

// creatorResponse is the wire shape of the creator profile endpoint
type creatorResponse struct {
	Data creatorData `json:"data"`
}

type creatorData struct {
	FollowerCount *int `json:"followerCount"`
}

// likesResponse is the wire shape of the per-article likes endpoint
type likesResponse struct {
	Data likesData `json:"data"`
}

type likesData struct {
	Likes       []likeEntry `json:"likes"`
	ExtraFields likesExtra  `json:"extra_fields"`
}

type likesExtra struct {
	LikeCount int `json:"like_count"`
}

type likeEntry struct {
	CreatedAt string   `json:"created_at"`
	User      likeUser `json:"user"`
}

type likeUser struct {
	ID            int64  `json:"id"`
	Nickname      string `json:"nickname"`
	URLName       string `json:"urlname"`
	FollowerCount int    `json:"follower_count"`
}
