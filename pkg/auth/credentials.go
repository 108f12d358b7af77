package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notestats/pkg/logger"
)

const (
	// CookieValidityDays is the platform-defined lifetime of a session
	// cookie, roughly three months
	CookieValidityDays = 90

	// expiryWarningDays is how close to expiry the warning starts
	expiryWarningDays = 10

	// SetDateFormat is the layout of the recorded cookie set-date
	SetDateFormat = "2006-01-02"
)

// Account holds the note.com session credentials for one account
type Account struct {
	Username     string    `json:"username"`
	Cookie       string    `json:"cookie"`
	SetDate      string    `json:"set_date,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific username
	Retrieve(username string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific username
	Delete(username string) error

	// Exists checks if credentials exist for a username
	Exists(username string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a new credential manager. Environment variables are
// consulted first so scheduler-provided secrets win over anything stored
// locally, then the system keyring, then the encrypted file.
func NewManager() (*Manager, error) {
	stores := []CredentialStore{NewEnvironmentStore()}

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	return &Manager{stores: stores}, nil
}

// Store saves credentials using the first store that accepts them.
// The environment store rejects writes, so stored accounts land in the
// keyring or the encrypted file.
func (m *Manager) Store(account *Account) error {
	if account.Username == "" {
		return errors.New("username is required")
	}
	if account.Cookie == "" {
		return errors.New("session cookie is required")
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else if !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// Delete removes credentials from every store that has them
func (m *Manager) Delete(username string) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// List returns all stored accounts across stores, deduplicated by
// username in store priority order
func (m *Manager) List() ([]*Account, error) {
	seen := make(map[string]bool)
	var accounts []*Account

	for _, store := range m.stores {
		stored, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range stored {
			if seen[account.Username] {
				continue
			}
			seen[account.Username] = true
			accounts = append(accounts, account)
		}
	}

	return accounts, nil
}

// ValidateCookie performs the basic sanity checks on the cookie value.
// A short cookie is only warned about; the browser sometimes issues a
// shorter but still valid session.
func ValidateCookie(cookie string, log logger.Logger) error {
	if cookie == "" {
		return errors.New("session cookie is empty")
	}

	if !strings.Contains(cookie, "=") {
		return fmt.Errorf("session cookie is not in key=value form: %s...", truncate(cookie, 30))
	}

	// Common mistake: pasting the whole env assignment as the value
	if strings.HasPrefix(cookie, "NOTE_COOKIE=") {
		return errors.New("session cookie value contains the NOTE_COOKIE= prefix, set only the value")
	}

	if len(cookie) < 50 && log != nil {
		log.WarnWithFields("session cookie looks too short, copy the full Cookie header from the browser", map[string]interface{}{
			"length": len(cookie),
		})
	}

	return nil
}

// DaysRemaining returns the days left in the cookie's validity window
// relative to now
func (a *Account) DaysRemaining(now time.Time) (int, error) {
	if a.SetDate == "" {
		return 0, errors.New("cookie set-date is not recorded")
	}

	setDate, err := time.ParseInLocation(SetDateFormat, a.SetDate, now.Location())
	if err != nil {
		return 0, fmt.Errorf("cookie set-date %q is not in YYYY-MM-DD form", a.SetDate)
	}

	elapsed := int(now.Sub(setDate).Hours() / 24)
	return CookieValidityDays - elapsed, nil
}

// CheckExpiry emits the approaching-expiry warning. The run itself keeps
// going either way; only the API rejecting the session is fatal.
func (a *Account) CheckExpiry(now time.Time, log logger.Logger) {
	remaining, err := a.DaysRemaining(now)
	if err != nil {
		log.WithError(err).Warn("skipping cookie expiry check")
		return
	}

	switch {
	case remaining <= 0:
		log.ErrorWithFields("session cookie has likely expired, rotate NOTE_COOKIE", map[string]interface{}{
			"days_elapsed": CookieValidityDays - remaining,
		})
	case remaining <= expiryWarningDays:
		log.WarnWithFields("session cookie expires soon, rotate NOTE_COOKIE", map[string]interface{}{
			"days_remaining": remaining,
		})
	default:
		log.DebugWithFields("session cookie within validity window", map[string]interface{}{
			"days_remaining": remaining,
		})
	}
}

// Masked returns a copy of the account safe for display
func (a *Account) Masked() *Account {
	return &Account{
		Username:     a.Username,
		Cookie:       maskString(a.Cookie),
		SetDate:      a.SetDate,
		LastModified: a.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// getConfigDir returns the directory for notestats configuration files
func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", "notestats")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
