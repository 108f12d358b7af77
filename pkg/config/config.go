package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the stats tracker
type Config struct {
	// note.com credentials and account settings
	Note NoteConfig `yaml:"note" json:"note"`

	// Output file settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Likes collection settings
	Likes LikesConfig `yaml:"likes" json:"likes"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// NoteConfig holds note.com-specific configuration
type NoteConfig struct {
	// Cookie is the full browser session cookie header value
	Cookie string `yaml:"cookie" json:"cookie"`

	// Username is the account urlname used by the creators API
	Username string `yaml:"username" json:"username"`

	// CookieSetDate records when the cookie was captured (YYYY-MM-DD),
	// used only for the expiry warning
	CookieSetDate string `yaml:"cookie_set_date" json:"cookie_set_date"`

	UserAgent string `yaml:"user_agent" json:"user_agent"`

	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// OutputConfig holds CSV output configuration
type OutputConfig struct {
	DataDirectory string `yaml:"data_directory" json:"data_directory"`
	ArticlesFile  string `yaml:"articles_file" json:"articles_file"`
	SummaryFile   string `yaml:"summary_file" json:"summary_file"`
	LikesFile     string `yaml:"likes_file" json:"likes_file"`
}

// LikesConfig holds settings for the per-article likes collector
type LikesConfig struct {
	PageSize     int           `yaml:"page_size" json:"page_size"`
	PageDelay    time.Duration `yaml:"page_delay" json:"page_delay"`
	ArticleDelay time.Duration `yaml:"article_delay" json:"article_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Note: NoteConfig{
			UserAgent:      "note-stats-tracker",
			RequestTimeout: 30 * time.Second,
		},
		Output: OutputConfig{
			DataDirectory: "./data",
			ArticlesFile:  "articles.csv",
			SummaryFile:   "daily_summary.csv",
			LikesFile:     "likes.csv",
		},
		Likes: LikesConfig{
			PageSize:     50,
			PageDelay:    time.Second,
			ArticleDelay: 1500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
// NOTE_COOKIE, NOTE_USERNAME and COOKIE_SET_DATE are the names the
// scheduler's secret store provides.
func (c *Config) LoadFromEnv() error {
	if cookie := os.Getenv("NOTE_COOKIE"); cookie != "" {
		c.Note.Cookie = cookie
	}
	if username := os.Getenv("NOTE_USERNAME"); username != "" {
		c.Note.Username = username
	}
	if setDate := os.Getenv("COOKIE_SET_DATE"); setDate != "" {
		c.Note.CookieSetDate = setDate
	}
	if userAgent := os.Getenv("NOTESTATS_USER_AGENT"); userAgent != "" {
		c.Note.UserAgent = userAgent
	}
	if dataDir := os.Getenv("NOTESTATS_DATA_DIR"); dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if logLevel := os.Getenv("NOTESTATS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".notestats.yaml",
		".notestats.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "notestats", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "notestats", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".notestats.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Note.Cookie == "" {
		errs = append(errs, errors.New("note session cookie is required (NOTE_COOKIE)"))
	}
	if c.Note.Username == "" {
		errs = append(errs, errors.New("note username is required (NOTE_USERNAME)"))
	}
	if c.Note.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Output.DataDirectory == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.Output.ArticlesFile == "" || c.Output.SummaryFile == "" || c.Output.LikesFile == "" {
		errs = append(errs, errors.New("output file names are required"))
	}

	if c.Likes.PageSize <= 0 {
		errs = append(errs, errors.New("likes page size must be positive"))
	}
	if c.Likes.PageDelay < 0 || c.Likes.ArticleDelay < 0 {
		errs = append(errs, errors.New("likes delays cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ArticlesPath returns the full path of the articles CSV
func (c *Config) ArticlesPath() string {
	return filepath.Join(c.Output.DataDirectory, c.Output.ArticlesFile)
}

// SummaryPath returns the full path of the daily summary CSV
func (c *Config) SummaryPath() string {
	return filepath.Join(c.Output.DataDirectory, c.Output.SummaryFile)
}

// LikesPath returns the full path of the likes CSV
func (c *Config) LikesPath() string {
	return filepath.Join(c.Output.DataDirectory, c.Output.LikesFile)
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if cookie, ok := flags["cookie"].(string); ok && cookie != "" {
		c.Note.Cookie = cookie
	}
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Note.Username = username
	}
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".notestats.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	return config, nil
}
