package note

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notestats/pkg/errors"
	"notestats/pkg/logger"
)

// newTestClient returns a client pointed at a mock server with pagination
// delays disabled
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("_note_session_v5=test", "note-stats-tracker", 5*time.Second, logger.NewTestLogger())
	client.SetBaseURL(server.URL)
	client.SetPageDelay(0)
	return client
}

const statsPage = `{
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

func TestClientSendsConfiguredHeaders(t *testing.T) {
	var gotCookie, gotAgent string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, statsPage)
	}))

	require.NoError(t, client.VerifyAuth())
	assert.Equal(t, "_note_session_v5=test", gotCookie)
	assert.Equal(t, "note-stats-tracker", gotAgent)
}

func TestVerifyAuth(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantErr  bool
		wantType errors.ErrorType
	}{
		{
			name: "accepted session",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, statsPage)
			},
		},
		{
			name: "rejected with 401",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantErr:  true,
			wantType: errors.ErrorTypeAuth,
		},
		{
			name: "rejected with 403",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantErr:  true,
			wantType: errors.ErrorTypeAuth,
		},
		{
			name: "200 but stats payload stripped",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"data": {}}`)
			},
			wantErr:  true,
			wantType: errors.ErrorTypeAuth,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr:  true,
			wantType: errors.ErrorTypeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			err := client.VerifyAuth()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			apiErr, ok := err.(*errors.Error)
			require.True(t, ok, "expected a typed API error, got %T", err)
			assert.Equal(t, tt.wantType, apiErr.Type)
		})
	}
}

func TestFetchStatsSinglePage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, statsPage)
	}))

	articles, totals, err := client.FetchStats()
	require.NoError(t, err)

	require.Len(t, articles, 2)
	assert.Equal(t, int64(101), articles[0].ID)
	assert.Equal(t, "n1aaa", articles[0].Key)
	assert.Equal(t, "First post", articles[0].Name)
	assert.Equal(t, 10, articles[0].ReadCount)
	assert.Equal(t, 2, articles[0].LikeCount)
	assert.Equal(t, 1, articles[0].CommentCount)

	assert.Equal(t, 15, totals.TotalPV)
	assert.Equal(t, 3, totals.TotalLike)
	assert.Equal(t, 1, totals.TotalComment)
}

func TestFetchStatsFollowsPagination(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"data": {
				"note_stats": [{"id": 1, "key": "na", "name": "A", "read_count": 1, "like_count": 0, "comment_count": 0}],
				"last_page": false
			}}`)
		case "2":
			fmt.Fprint(w, `{"data": {
				"note_stats": [{"id": 2, "key": "nb", "name": "B", "read_count": 2, "like_count": 1, "comment_count": 0}],
				"last_page": true,
				"total_pv": 3,
				"total_like": 1
			}}`)
		default:
			t.Errorf("unexpected page request: %s", r.URL.String())
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	articles, totals, err := client.FetchStats()
	require.NoError(t, err)

	require.Len(t, articles, 2)
	assert.Equal(t, "na", articles[0].Key)
	assert.Equal(t, "nb", articles[1].Key)
	// Totals come from the final page
	assert.Equal(t, 3, totals.TotalPV)
	assert.Equal(t, 1, totals.TotalLike)
}

func TestFetchStatsEmptyAccount(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"note_stats": [], "last_page": true}}`)
	}))

	articles, totals, err := client.FetchStats()
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Zero(t, totals.TotalPV)
}

func TestFetchFollowerCount(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/creators/writer", r.URL.Path)
		fmt.Fprint(w, `{"data": {"followerCount": 100}}`)
	}))

	count, err := client.FetchFollowerCount("writer")
	require.NoError(t, err)
	assert.Equal(t, 100, count)
}

func TestFetchFollowerCountMissingField(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {}}`)
	}))

	_, err := client.FetchFollowerCount("writer")
	require.Error(t, err)
	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeParsing, apiErr.Type)
}

func TestFetchArticleLikes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/notes/n1aaa/likes", r.URL.Path)
		switch r.URL.Query().Get("start") {
		case "0":
			fmt.Fprint(w, `{"data": {
				"likes": [
					{"created_at": "2026-02-07T10:00:00+09:00", "user": {"id": 1, "nickname": "Alice", "urlname": "alice", "follower_count": 12}},
					{"created_at": "2026-02-07T11:00:00+09:00", "user": {"id": 2, "nickname": "Bob", "urlname": "bob", "follower_count": 3}}
				],
				"extra_fields": {"like_count": 3}
			}}`)
		case "2":
			fmt.Fprint(w, `{"data": {
				"likes": [
					{"created_at": "2026-02-07T12:00:00+09:00", "user": {"id": 3, "nickname": "Carol", "urlname": "carol", "follower_count": 7}}
				],
				"extra_fields": {"like_count": 3}
			}}`)
		default:
			t.Errorf("unexpected start offset: %s", r.URL.String())
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	likes, err := client.FetchArticleLikes("n1aaa", 2)
	require.NoError(t, err)

	require.Len(t, likes, 3)
	assert.Equal(t, "n1aaa", likes[0].NoteKey)
	assert.Equal(t, "1", likes[0].UserID)
	assert.Equal(t, "Alice", likes[0].Username)
	assert.Equal(t, "alice", likes[0].URLName)
	assert.Equal(t, 12, likes[0].FollowerCount)
	assert.Equal(t, "3", likes[2].UserID)
}

func TestFetchArticleLikesStopsOnRepeatedPage(t *testing.T) {
	// The API sometimes keeps returning the same page; the reported
	// like_count overshoots what pagination can actually reach
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {
			"likes": [
				{"created_at": "2026-02-07T10:00:00+09:00", "user": {"id": 1, "nickname": "Alice", "urlname": "alice", "follower_count": 12}}
			],
			"extra_fields": {"like_count": 10}
		}}`)
	}))

	likes, err := client.FetchArticleLikes("n1aaa", 1)
	require.NoError(t, err)
	assert.Len(t, likes, 1)
}

func TestFetchArticleLikesEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"likes": [], "extra_fields": {"like_count": 0}}}`)
	}))

	likes, err := client.FetchArticleLikes("n1aaa", 50)
	require.NoError(t, err)
	assert.Empty(t, likes)
}

func TestGetJSONParseError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))

	err := client.VerifyAuth()
	require.Error(t, err)
	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeParsing, apiErr.Type)
}

func TestNetworkError(t *testing.T) {
	client := NewClient("cookie=x", "agent", 100*time.Millisecond, logger.NewTestLogger())
	client.SetBaseURL("http://127.0.0.1:1")
	client.SetPageDelay(0)

	err := client.VerifyAuth()
	require.Error(t, err)
	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNetwork, apiErr.Type)
}
