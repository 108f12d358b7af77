package tracker

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notestats/pkg/config"
	"notestats/pkg/errors"
	"notestats/pkg/logger"
)

// statsServer answers all three note API endpoints from in-memory fixtures
type statsServer struct {
	stats      string
	creator    string
	likes      map[string]string
	authReject bool
}

func (s *statsServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authReject {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch {
		case r.URL.Path == "/api/v1/stats/pv":
			fmt.Fprint(w, s.stats)
		case strings.HasPrefix(r.URL.Path, "/api/v2/creators/"):
			fmt.Fprint(w, s.creator)
		case strings.HasPrefix(r.URL.Path, "/api/v3/notes/"):
			parts := strings.Split(r.URL.Path, "/")
			noteKey := parts[len(parts)-2]
			if body, ok := s.likes[noteKey]; ok {
				fmt.Fprint(w, body)
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestTracker(t *testing.T, server *statsServer) (*Tracker, *config.Config, *logger.TestLogger) {
	t.Helper()

	ts := httptest.NewServer(server.handler())
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig()
	cfg.Note.Cookie = "_note_session_v5=test"
	cfg.Note.Username = "writer"
	cfg.Output.DataDirectory = t.TempDir()
	cfg.Likes.PageDelay = 0
	cfg.Likes.ArticleDelay = 0

	log := logger.NewTestLogger()
	tr := New(cfg, log)
	tr.Client().SetBaseURL(ts.URL)
	tr.Client().SetPageDelay(0)
	return tr, cfg, log
}

const twoArticleStats = `{
	"data": {
		"note_stats": [
			{"id": 101, "key": "n1aaa", "name": "First post", "read_count": 10, "like_count": 2, "comment_count": 1},
			{"id": 102, "key": "n2bbb", "name": "Second post", "read_count": 5, "like_count": 1, "comment_count": 0}
		],
		"last_page": true,
		"total_pv": 15,
		"total_like": 3,
		"total_comment": 1
	}
}`

func TestRunAppendsBothFiles(t *testing.T) {
	tr, cfg, _ := newTestTracker(t, &statsServer{
		stats:   twoArticleStats,
		creator: `{"data": {"followerCount": 100}}`,
	})

	result, err := tr.Run("2026-02-07")
	require.NoError(t, err)

	assert.Equal(t, "2026-02-07", result.Date)
	assert.Equal(t, 2, result.ArticleCount)
	assert.Equal(t, 15, result.TotalViews)
	assert.Equal(t, 3, result.TotalLikes)
	assert.Equal(t, 1, result.TotalComments)
	assert.Equal(t, 100, result.FollowerCount)

	articles, err := os.ReadFile(cfg.ArticlesPath())
	require.NoError(t, err)
	articleLines := strings.Split(strings.TrimSpace(string(articles)), "\n")
	require.Len(t, articleLines, 3)
	assert.Equal(t, "2026-02-07,101,n1aaa,First post,10,2,1", articleLines[1])
	assert.Equal(t, "2026-02-07,102,n2bbb,Second post,5,1,0", articleLines[2])

	summary, err := os.ReadFile(cfg.SummaryPath())
	require.NoError(t, err)
	summaryLines := strings.Split(strings.TrimSpace(string(summary)), "\n")
	require.Len(t, summaryLines, 2)
	assert.Equal(t, "2026-02-07,2,15,3,1,100", summaryLines[1])
}

func TestRunOnSameDateAppendsSecondSet(t *testing.T) {
	tr, cfg, _ := newTestTracker(t, &statsServer{
		stats:   twoArticleStats,
		creator: `{"data": {"followerCount": 100}}`,
	})

	_, err := tr.Run("2026-02-07")
	require.NoError(t, err)
	_, err = tr.Run("2026-02-07")
	require.NoError(t, err)

	articles, err := os.ReadFile(cfg.ArticlesPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(articles)), "\n")
	assert.Len(t, lines, 5, "rerun appends, never replaces")

	summary, err := os.ReadFile(cfg.SummaryPath())
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(summary)), "\n"), 3)
}

func TestRunAuthFailureWritesNothing(t *testing.T) {
	tr, cfg, _ := newTestTracker(t, &statsServer{authReject: true})

	_, err := tr.Run("2026-02-07")
	require.Error(t, err)
	assert.True(t, errors.IsAuthError(err))

	entries, readErr := os.ReadDir(cfg.Output.DataDirectory)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "a failed run must leave no files behind")
}

func TestRunExpiredSessionDetectedOnOKResponse(t *testing.T) {
	tr, cfg, _ := newTestTracker(t, &statsServer{
		stats:   `{"data": {}}`,
		creator: `{"data": {"followerCount": 100}}`,
	})

	_, err := tr.Run("2026-02-07")
	require.Error(t, err)
	assert.True(t, errors.IsAuthError(err))

	entries, readErr := os.ReadDir(cfg.Output.DataDirectory)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestRunFollowerFetchFailureAborts(t *testing.T) {
	tr, cfg, _ := newTestTracker(t, &statsServer{
		stats:   twoArticleStats,
		creator: `{"data": {}}`,
	})

	_, err := tr.Run("2026-02-07")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "follower count")

	// Nothing is appended when any fetch fails; appends happen after all
	// fetches succeed
	_, statErr := os.Stat(cfg.ArticlesPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunSummaryMatchesArticleRowSums(t *testing.T) {
	// API totals disagree with the per-article stats; the summary follows
	// the rows
	tr, cfg, log := newTestTracker(t, &statsServer{
		stats: `{
			"data": {
				"note_stats": [
					{"id": 1, "key": "na", "name": "A", "read_count": 7, "like_count": 2, "comment_count": 0}
				],
				"last_page": true,
				"total_pv": 9999,
				"total_like": 9999,
				"total_comment": 9999
			}
		}`,
		creator: `{"data": {"followerCount": 1}}`,
	})

	result, err := tr.Run("2026-02-07")
	require.NoError(t, err)

	assert.Equal(t, 7, result.TotalViews)
	assert.Equal(t, 2, result.TotalLikes)
	assert.True(t, log.HasMessage("DEBUG", "API totals differ"))

	summary, err := os.ReadFile(cfg.SummaryPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(summary)), "\n")
	assert.Equal(t, "2026-02-07,1,7,2,0,1", lines[1])
}

func TestRunEmptyAccount(t *testing.T) {
	tr, cfg, _ := newTestTracker(t, &statsServer{
		stats:   `{"data": {"note_stats": [], "last_page": true}}`,
		creator: `{"data": {"followerCount": 5}}`,
	})

	result, err := tr.Run("2026-02-07")
	require.NoError(t, err)

	assert.Equal(t, 0, result.ArticleCount)
	assert.Equal(t, 5, result.FollowerCount)

	// Header-only articles file, one summary row
	articles, err := os.ReadFile(cfg.ArticlesPath())
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(articles)), "\n"), 1)

	summary, err := os.ReadFile(cfg.SummaryPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(summary)), "\n")
	assert.Equal(t, "2026-02-07,0,0,0,0,5", lines[1])
}

