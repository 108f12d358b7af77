package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"notestats/pkg/models"
)

// Column headers for the three CSV files. The column order is part of
// the data contract; the files are committed to version control and read
// by downstream reporting.
var (
	ArticlesHeader = []string{"date", "note_id", "key", "title", "read_count", "like_count", "comment_count"}
	SummaryHeader  = []string{"date", "article_count", "total_pv", "total_like", "total_comment", "follower_count"}
	LikesHeader    = []string{"note_key", "like_user_id", "like_username", "like_user_urlname", "liked_at", "follower_count"}
)

// LikeRef identifies one recorded like
type LikeRef struct {
	NoteKey string
	UserID  string
}

// Manager handles the append-only CSV files under the data directory.
// There is no locking; the scheduler runs at most one collection at a
// time and nothing else writes these files.
type Manager struct {
	articlesPath string
	summaryPath  string
	likesPath    string
}

// NewManager creates a new storage manager. The data directory is only
// created once something is actually written, so a failed run leaves no
// trace on disk.
func NewManager(articlesPath, summaryPath, likesPath string) *Manager {
	return &Manager{
		articlesPath: articlesPath,
		summaryPath:  summaryPath,
		likesPath:    likesPath,
	}
}

// ArticlesPath returns the articles CSV path
func (m *Manager) ArticlesPath() string { return m.articlesPath }

// SummaryPath returns the daily summary CSV path
func (m *Manager) SummaryPath() string { return m.summaryPath }

// LikesPath returns the likes CSV path
func (m *Manager) LikesPath() string { return m.likesPath }

// AppendArticles appends one row per article snapshot, writing the header
// first if the file is new. Existing rows are never touched; a second run
// on the same date appends a second dated set.
func (m *Manager) AppendArticles(snapshots []models.ArticleSnapshot) error {
	rows := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, []string{
			s.Date,
			strconv.FormatInt(s.ArticleID, 10),
			s.Key,
			s.Title,
			strconv.Itoa(s.ViewCount),
			strconv.Itoa(s.LikeCount),
			strconv.Itoa(s.CommentCount),
		})
	}

	return m.appendRows(m.articlesPath, ArticlesHeader, rows)
}

// AppendSummary appends the daily summary row, writing the header first
// if the file is new
func (m *Manager) AppendSummary(summary models.DailySummary) error {
	row := []string{
		summary.Date,
		strconv.Itoa(summary.ArticleCount),
		strconv.Itoa(summary.TotalViews),
		strconv.Itoa(summary.TotalLikes),
		strconv.Itoa(summary.TotalComments),
		strconv.Itoa(summary.FollowerCount),
	}

	return m.appendRows(m.summaryPath, SummaryHeader, [][]string{row})
}

// AppendLikes appends one row per like, writing the header first if the
// file is new
func (m *Manager) AppendLikes(likes []models.Like) error {
	rows := make([][]string, 0, len(likes))
	for _, l := range likes {
		rows = append(rows, []string{
			l.NoteKey,
			l.UserID,
			l.Username,
			l.URLName,
			l.LikedAt,
			strconv.Itoa(l.FollowerCount),
		})
	}

	return m.appendRows(m.likesPath, LikesHeader, rows)
}

// appendRows appends rows to a CSV file, prepending the header when the
// file does not exist yet or is empty
func (m *Manager) appendRows(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	writeHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write header to %s: %w", path, err)
		}
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	return nil
}

// ArticleHistory loads the articles CSV into per-date like-count maps,
// keyed date -> note key -> like count, plus the sorted list of dates.
// A missing file is not an error; it just means no stats run happened yet.
func (m *Manager) ArticleHistory() (map[string]map[string]int, []string, error) {
	records, err := m.readAll(m.articlesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]map[string]int{}, nil, nil
		}
		return nil, nil, err
	}
	if len(records) < 2 {
		return map[string]map[string]int{}, nil, nil
	}

	header := records[0]
	dateIdx, keyIdx, likeIdx := indexOf(header, "date"), indexOf(header, "key"), indexOf(header, "like_count")
	if dateIdx < 0 || keyIdx < 0 || likeIdx < 0 {
		return nil, nil, fmt.Errorf("articles CSV %s is missing required columns", m.articlesPath)
	}

	history := make(map[string]map[string]int)
	for _, row := range records[1:] {
		if len(row) <= max(dateIdx, keyIdx, likeIdx) {
			continue
		}
		date, key := row[dateIdx], row[keyIdx]
		likeCount, err := strconv.Atoi(row[likeIdx])
		if err != nil {
			likeCount = 0
		}
		if history[date] == nil {
			history[date] = make(map[string]int)
		}
		history[date][key] = likeCount
	}

	dates := make([]string, 0, len(history))
	for date := range history {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	return history, dates, nil
}

// LikeIndex loads the set of (note key, user ID) pairs already recorded
// in the likes CSV. A missing file yields an empty index.
func (m *Manager) LikeIndex() (map[LikeRef]bool, error) {
	records, err := m.readAll(m.likesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[LikeRef]bool{}, nil
		}
		return nil, err
	}

	index := make(map[LikeRef]bool)
	for i, row := range records {
		if i == 0 || len(row) < 2 {
			continue
		}
		index[LikeRef{NoteKey: row[0], UserID: row[1]}] = true
	}

	return index, nil
}

// readAll reads an entire CSV file. Rows with a variable number of
// fields are tolerated; the files are hand-editable.
func (m *Manager) readAll(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

func indexOf(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}
