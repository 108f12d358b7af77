package note

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"notestats/pkg/errors"
	"notestats/pkg/logger"
	"notestats/pkg/models"
)

// Client is an authenticated note.com API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	pageDelay  time.Duration
	logger     logger.Logger
}

// NewClient creates a new note API client. The cookie is sent verbatim as
// the Cookie header on every request.
func NewClient(cookie, userAgent string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Cookie":     cookie,
			"User-Agent": userAgent,
			"Accept":     "application/json, text/plain, */*",
			"Referer":    BaseURL + "/",
		},
		baseURL:   BaseURL,
		pageDelay: time.Second,
		logger:    log,
	}
}

// SetBaseURL overrides the API base URL (used by tests)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetPageDelay overrides the pause between paginated requests
func (c *Client) SetPageDelay(d time.Duration) {
	c.pageDelay = d
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs a GET request with the configured headers
func (c *Client) doRequest(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"url": url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(url string, target interface{}) error {
	resp, err := c.doRequest(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus maps HTTP error statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	errType := errors.TypeForStatusCode(resp.StatusCode)
	switch errType {
	case errors.ErrorTypeAuth:
		c.logger.WarnWithFields("authentication rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "session cookie rejected, rotate NOTE_COOKIE",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return &errors.Error{
				Type:    errType,
				Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}

// VerifyAuth probes the stats endpoint to confirm the session cookie is
// still accepted before the collection starts
func (c *Client) VerifyAuth() error {
	var response statsResponse
	if err := c.getJSON(StatsURL(c.baseURL, 1), &response); err != nil {
		return err
	}

	if !response.hasStats() {
		c.logger.Warn("stats API answered without a stats payload, session is likely expired")
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "stats API returned no data, session cookie is invalid or expired",
			Code:    http.StatusOK,
		}
	}

	c.logger.Debug("session cookie accepted by stats API")
	return nil
}

// FetchStats fetches every page of the article stats listing and the
// account-wide totals reported on the final page
func (c *Client) FetchStats() ([]models.ArticleStat, models.StatsTotals, error) {
	var (
		articles []models.ArticleStat
		totals   models.StatsTotals
	)

	page := 1
	for {
		c.logger.DebugWithFields("fetching stats page", map[string]interface{}{
			"page": page,
		})

		var response statsResponse
		if err := c.getJSON(StatsURL(c.baseURL, page), &response); err != nil {
			return nil, models.StatsTotals{}, err
		}

		if !response.hasStats() {
			return nil, models.StatsTotals{}, &errors.Error{
				Type:    errors.ErrorTypeAuth,
				Message: "stats API returned no data, session cookie is invalid or expired",
				Code:    http.StatusOK,
			}
		}

		articles = append(articles, *response.Data.NoteStats...)
		totals = models.StatsTotals{
			TotalPV:      response.Data.TotalPV,
			TotalLike:    response.Data.TotalLike,
			TotalComment: response.Data.TotalComment,
		}

		if response.Data.LastPage {
			break
		}

		page++
		time.Sleep(c.pageDelay)
	}

	c.logger.InfoWithFields("fetched article stats", map[string]interface{}{
		"articles":   len(articles),
		"total_pv":   totals.TotalPV,
		"total_like": totals.TotalLike,
	})

	return articles, totals, nil
}

// FetchFollowerCount fetches the current follower count for the account
func (c *Client) FetchFollowerCount(username string) (int, error) {
	var response creatorResponse
	if err := c.getJSON(CreatorURL(c.baseURL, username), &response); err != nil {
		return 0, err
	}

	if response.Data.FollowerCount == nil {
		return 0, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("creator API returned no follower count for %s", username),
			Code:    http.StatusOK,
		}
	}

	c.logger.DebugWithFields("fetched follower count", map[string]interface{}{
		"username":  username,
		"followers": *response.Data.FollowerCount,
	})

	return *response.Data.FollowerCount, nil
}

// FetchArticleLikes fetches every like on one article through the public
// v3 likes API. The API's own last-page flag is unreliable, so pagination
// stops once the reported like_count is reached or a page yields no new
// user IDs.
func (c *Client) FetchArticleLikes(noteKey string, pageSize int) ([]models.Like, error) {
	var (
		likes      []models.Like
		seen       = make(map[string]bool)
		start      = 0
		totalCount = -1
	)

	if pageSize <= 0 {
		pageSize = DefaultLikesPageSize
	}

	for {
		var response likesResponse
		if err := c.getJSON(LikesURL(c.baseURL, noteKey, start, pageSize), &response); err != nil {
			return nil, err
		}

		if totalCount < 0 {
			totalCount = response.Data.ExtraFields.LikeCount
		}

		if len(response.Data.Likes) == 0 {
			break
		}

		newInPage := 0
		for _, entry := range response.Data.Likes {
			userID := strconv.FormatInt(entry.User.ID, 10)
			if seen[userID] {
				continue
			}
			seen[userID] = true
			newInPage++
			likes = append(likes, models.Like{
				NoteKey:       noteKey,
				UserID:        userID,
				Username:      entry.User.Nickname,
				URLName:       entry.User.URLName,
				LikedAt:       entry.CreatedAt,
				FollowerCount: entry.User.FollowerCount,
			})
		}

		if len(likes) >= totalCount || newInPage == 0 {
			break
		}

		start += pageSize
		time.Sleep(c.pageDelay)
	}

	if totalCount >= 0 && len(likes) < totalCount {
		c.logger.WarnWithFields("likes API returned fewer likes than reported", map[string]interface{}{
			"note_key": noteKey,
			"reported": totalCount,
			"fetched":  len(likes),
		})
	}

	return likes, nil
}
