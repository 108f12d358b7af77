package note

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL is the base URL for note.com
	BaseURL = "https://note.com"

	// StatsEndpoint is the endpoint pattern for the per-article stats listing
	StatsEndpoint = "/api/v1/stats/pv"

	// CreatorEndpoint is the endpoint pattern for creator profiles
	CreatorEndpoint = "/api/v2/creators"

	// LikesEndpoint is the endpoint pattern for per-article likes.
	// The v3 likes API is public and needs no session cookie.
	LikesEndpoint = "/api/v3/notes"

	// DefaultLikesPageSize is the page size accepted by the likes API
	DefaultLikesPageSize = 50
)

// StatsURL constructs the URL for one page of the article stats listing
func StatsURL(baseURL string, page int) string {
	params := url.Values{}
	params.Set("filter", "all")
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("sort", "pv")

	return fmt.Sprintf("%s%s?%s", baseURL, StatsEndpoint, params.Encode())
}

// CreatorURL constructs the URL for a creator's profile
func CreatorURL(baseURL, username string) string {
	return fmt.Sprintf("%s%s/%s", baseURL, CreatorEndpoint, url.PathEscape(username))
}

// LikesURL constructs the URL for one page of an article's likes
func LikesURL(baseURL, noteKey string, start, size int) string {
	if size <= 0 {
		size = DefaultLikesPageSize
	}

	params := url.Values{}
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("size", fmt.Sprintf("%d", size))

	return fmt.Sprintf("%s%s/%s/likes?%s", baseURL, LikesEndpoint, url.PathEscape(noteKey), params.Encode())
}

// IsValidUsername checks whether a username looks like a note urlname
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}

	return true
}
