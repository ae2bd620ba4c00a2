package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "playcast"
	keyringAccount = "api-key"

	credentialsFileName = "credentials.json"

	// TokenEnvVar overrides any stored credential when set.
	TokenEnvVar = "PLAYCAST_TOKEN"
)

// ErrNotLoggedIn is returned when no credential is stored anywhere.
var ErrNotLoggedIn = errors.New("not authenticated: run 'playcast auth login' or set PLAYCAST_TOKEN")

// Store holds the developer's API token between invocations.
type Store interface {
	Token() (string, error)
	SetToken(token string) error
	Clear() error
}

// Source says where a token came from, for `auth status`.
type Source string

const (
	SourceNone        Source = "none"
	SourceEnvironment Source = "environment"
	SourceKeyring     Source = "keyring"
	SourceFile        Source = "file"
)

// KeyringStore keeps the token in the OS-native secure store.
type KeyringStore struct{}

func (KeyringStore) Token() (string, error) {
	token, err := keyring.Get(keyringService, keyringAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotLoggedIn
		}
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return token, nil
}

func (KeyringStore) SetToken(token string) error {
	if err := keyring.Set(keyringService, keyringAccount, token); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

func (KeyringStore) Clear() error {
	err := keyring.Delete(keyringService, keyringAccount)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("clear keyring: %w", err)
	}
	return nil
}

// FileStore keeps the token in a 0600 JSON file inside a 0700
// directory, for hosts without a usable keyring.
type FileStore struct {
	Dir string
}

type credentialsFile struct {
	APIKey string `json:"api_key"`
}

func (s FileStore) path() string { return filepath.Join(s.Dir, credentialsFileName) }

func (s FileStore) Token() (string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotLoggedIn
		}
		return "", fmt.Errorf("read credentials: %w", err)
	}
	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("decode credentials: %w", err)
	}
	if creds.APIKey == "" {
		return "", ErrNotLoggedIn
	}
	return creds.APIKey, nil
}

func (s FileStore) SetToken(token string) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(credentialsFile{APIKey: token}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s FileStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// NewStore picks the OS keyring when it works and falls back to the
// credentials file under configDir otherwise.
func NewStore(configDir string) Store {
	ks := KeyringStore{}
	if _, err := ks.Token(); err == nil || errors.Is(err, ErrNotLoggedIn) {
		return ks
	}
	return FileStore{Dir: configDir}
}

// Manager resolves tokens with the environment override applied.
type Manager struct {
	Store Store
}

// Token returns the active token, preferring PLAYCAST_TOKEN.
func (m Manager) Token() (string, Source, error) {
	if token := os.Getenv(TokenEnvVar); token != "" {
		return token, SourceEnvironment, nil
	}
	token, err := m.Store.Token()
	if err != nil {
		return "", SourceNone, err
	}
	switch m.Store.(type) {
	case KeyringStore:
		return token, SourceKeyring, nil
	default:
		return token, SourceFile, nil
	}
}

// MaskToken renders a token safely for status output.
func MaskToken(token string) string {
	if len(token) > 10 {
		return token[:6] + "..." + token[len(token)-3:]
	}
	return "***"
}
