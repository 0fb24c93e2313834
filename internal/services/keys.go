package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/desertthunder/greekdeck/internal/shared"
)

const (
	KeyringService = "greek-anki"
	KeyringUser    = "anthropic-api-key"

	// ConsoleKeysURL is where Anthropic API keys are created.
	ConsoleKeysURL = "https://console.anthropic.com/settings/keys"
)

// KeyStore persists the API key.
type KeyStore interface {
	// Get returns the stored key, or "" when none is stored.
	Get() (string, error)
	Set(key string) error
	// Delete removes the stored key. Deleting a missing key is not an error.
	Delete() error
}

// SystemKeyStore stores the key in the OS credential store.
type SystemKeyStore struct {
	Service string
	User    string
}

// NewSystemKeyStore returns a SystemKeyStore with the default service and user names.
func NewSystemKeyStore() *SystemKeyStore {
	return &SystemKeyStore{Service: KeyringService, User: KeyringUser}
}

func (s *SystemKeyStore) Get() (string, error) {
	key, err := keyring.Get(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return key, nil
}

func (s *SystemKeyStore) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty API key", shared.ErrInvalidInput)
	}
	if err := keyring.Set(s.Service, s.User, key); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

func (s *SystemKeyStore) Delete() error {
	err := keyring.Delete(s.Service, s.User)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry: %w", err)
	}
	return nil
}

// KeySource tells where [ResolveAPIKey] found the key.
type KeySource string

const (
	KeySourceKeyring KeySource = "keyring"
	KeySourceConfig  KeySource = "config"
)

// ResolveAPIKey returns the keyring key if set, else fallback (configuration or environment).
//
// A keyring failure is reported only when there is no fallback.
func ResolveAPIKey(store KeyStore, fallback string) (string, KeySource, error) {
	var storeErr error
	if store != nil {
		key, err := store.Get()
		if err == nil && key != "" {
			return key, KeySourceKeyring, nil
		}
		storeErr = err
	}

	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback, KeySourceConfig, nil
	}
	if storeErr != nil {
		return "", "", fmt.Errorf("%w: %v", shared.ErrMissingCredentials, storeErr)
	}
	return "", "", shared.ErrMissingCredentials
}
