package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using the NOTE_COOKIE,
// NOTE_USERNAME and COOKIE_SET_DATE environment variables. This is what
// the scheduler's secret store feeds the CI runs through.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. When a username
// is given it must match NOTE_USERNAME; the environment only ever holds
// one account.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	cookie := os.Getenv("NOTE_COOKIE")
	envUsername := os.Getenv("NOTE_USERNAME")

	if cookie == "" || envUsername == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != envUsername {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     envUsername,
		Cookie:       cookie,
		SetDate:      os.Getenv("COOKIE_SET_DATE"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
