package services

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/desertthunder/greekdeck/internal/shared"
)

type staticKeyStore struct {
	key string
	err error
}

func (s *staticKeyStore) Get() (string, error) { return s.key, s.err }
func (s *staticKeyStore) Set(key string) error { s.key = key; return nil }
func (s *staticKeyStore) Delete() error        { s.key = ""; return nil }

func TestSystemKeyStore(t *testing.T) {
	keyring.MockInit()
	store := NewSystemKeyStore()

	t.Run("empty store", func(t *testing.T) {
		key, err := store.Get()
		if err != nil || key != "" {
			t.Errorf("expected no key, got %q, %v", key, err)
		}
	})

	t.Run("Set Get Delete", func(t *testing.T) {
		if err := store.Set(" sk-ant-123 "); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		key, err := store.Get()
		if err != nil || key != "sk-ant-123" {
			t.Errorf("expected stored key, got %q, %v", key, err)
		}

		if err := store.Delete(); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(); err != nil {
			t.Errorf("expected deleting a missing key to succeed, got %v", err)
		}
	})

	t.Run("rejects empty key", func(t *testing.T) {
		if err := store.Set(""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		store      KeyStore
		fallback   string
		wantKey    string
		wantSource KeySource
		wantErr    bool
	}{
		{"keyring wins", &staticKeyStore{key: "ring"}, "env", "ring", KeySourceKeyring, false},
		{"fallback", &staticKeyStore{}, "env", "env", KeySourceConfig, false},
		{"keyring error with fallback", &staticKeyStore{err: errors.New("no dbus")}, "env", "env", KeySourceConfig, false},
		{"nil store", nil, "env", "env", KeySourceConfig, false},
		{"nothing", &staticKeyStore{}, " ", "", "", true},
		{"keyring error without fallback", &staticKeyStore{err: errors.New("no dbus")}, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, source, err := ResolveAPIKey(tt.store, tt.fallback)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrMissingCredentials) {
					t.Errorf("expected ErrMissingCredentials, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != tt.wantKey || source != tt.wantSource {
				t.Errorf("expected %q from %s, got %q from %s", tt.wantKey, tt.wantSource, key, source)
			}
		})
	}
}
