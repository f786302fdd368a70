package keyring

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitquest/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Secret names one keyring entry.
type Secret struct {
	user string
	// env, when set in the environment, takes precedence over the keyring.
	env string
}

var (
	ConnectionString = Secret{user: constants.DefaultKeyringUser, env: constants.EnvPrefix + "_DATABASE_URL"}
	APIToken         = Secret{user: constants.APITokenKeyringUser, env: constants.EnvPrefix + "_API_TOKEN"}
)

func (s Secret) String() string { return s.user }

// Lookup finds a secret by its keyring user name.
func Lookup(name string) (Secret, bool) {
	for _, s := range []Secret{ConnectionString, APIToken} {
		if s.user == name {
			return s, true
		}
	}
	return Secret{}, false
}

// Get retrieves the secret from the environment or the OS keyring.
// Returns ErrNotFound if neither holds it.
func Get(s Secret) (string, error) {
	if v := os.Getenv(s.env); v != "" {
		return v, nil
	}
	value, err := keyring.Get(constants.AppName, s.user)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrNotFound
		}
		// Wrap other keyring errors as unavailable
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores the secret in the OS keyring.
func Set(s Secret, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", s)
	}
	if err := keyring.Set(constants.AppName, s.user, value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// Delete removes the secret from the OS keyring.
func Delete(s Secret) error {
	err := keyring.Delete(constants.AppName, s.user)
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	// ErrNotFound means the keyring answered, it is just empty
	return err == nil || err == keyring.ErrNotFound
}
