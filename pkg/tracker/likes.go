package tracker

import (
	"fmt"
	"sort"
	"time"

	"notestats/pkg/models"
	"notestats/pkg/storage"
)

// Likes collection modes
const (
	LikesModeBaseline = "baseline"
	LikesModeDiff     = "diff"
)

// LikesResult summarizes one likes collection run
type LikesResult struct {
	Mode            string
	ArticlesChecked int
	NewLikes        int
}

// CollectLikes records who liked which article. On the first run it takes
// a baseline of every article's likes; afterwards it compares the two
// most recent snapshot dates and only fetches articles whose like count
// grew. Collection is best-effort per article: a failed article is
// skipped, not fatal, since the next stats diff will pick it up again.
func (t *Tracker) CollectLikes() (*LikesResult, error) {
	history, dates, err := t.store.ArticleHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to load article history: %w", err)
	}
	if len(dates) == 0 {
		t.logger.Info("no article history yet, run a stats collection first")
		return &LikesResult{Mode: LikesModeBaseline}, nil
	}

	index, err := t.store.LikeIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load like index: %w", err)
	}

	result := &LikesResult{Mode: LikesModeDiff}

	var targets []string
	if len(index) == 0 {
		// Baseline: record every article's likes in one pass
		result.Mode = LikesModeBaseline
		latest := history[dates[len(dates)-1]]
		for key := range latest {
			targets = append(targets, key)
		}
		sort.Strings(targets)

		t.logger.InfoWithFields("taking likes baseline", map[string]interface{}{
			"articles": len(targets),
		})
	} else {
		if len(dates) < 2 {
			t.logger.Info("not enough snapshot dates to diff like counts")
			return result, nil
		}

		targets = articlesWithNewLikes(history[dates[len(dates)-2]], history[dates[len(dates)-1]])
		if len(targets) == 0 {
			t.logger.Info("no like count changes since the previous snapshot")
			return result, nil
		}

		t.logger.InfoWithFields("like counts grew, fetching details", map[string]interface{}{
			"articles": len(targets),
		})
	}

	var newLikes []models.Like
	for i, noteKey := range targets {
		likes, err := t.client.FetchArticleLikes(noteKey, t.cfg.Likes.PageSize)
		if err != nil {
			t.logger.WarnWithFields("skipping article, likes fetch failed", map[string]interface{}{
				"note_key": noteKey,
				"error":    err.Error(),
			})
			continue
		}
		result.ArticlesChecked++

		for _, like := range likes {
			ref := storage.LikeRef{NoteKey: like.NoteKey, UserID: like.UserID}
			if index[ref] {
				continue
			}
			index[ref] = true
			newLikes = append(newLikes, like)
		}

		if i < len(targets)-1 {
			time.Sleep(t.cfg.Likes.ArticleDelay)
		}
	}

	if len(newLikes) > 0 {
		if err := t.store.AppendLikes(newLikes); err != nil {
			return nil, fmt.Errorf("failed to append likes: %w", err)
		}
	}
	result.NewLikes = len(newLikes)

	t.logger.InfoWithFields("likes collection completed", map[string]interface{}{
		"mode":      result.Mode,
		"articles":  result.ArticlesChecked,
		"new_likes": result.NewLikes,
	})

	return result, nil
}

// articlesWithNewLikes returns the keys whose like count grew between the
// previous and latest snapshots, sorted for stable fetch order
func articlesWithNewLikes(previous, latest map[string]int) []string {
	var changed []string
	for noteKey, likeCount := range latest {
		if likeCount > previous[noteKey] {
			changed = append(changed, noteKey)
		}
	}
	sort.Strings(changed)
	return changed
}
