package auth

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := FileStore{Dir: filepath.Join(t.TempDir(), "playcast")}

	if _, err := store.Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if err := store.SetToken("pk_live_abc123"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	token, err := store.Token()
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token != "pk_live_abc123" {
		t.Fatalf("unexpected token: %q", token)
	}
}

func TestFileStorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	store := FileStore{Dir: filepath.Join(t.TempDir(), "playcast")}
	if err := store.SetToken("secret"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	info, err := os.Stat(store.path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("credentials file mode %o, want 600", perm)
	}
	dirInfo, err := os.Stat(store.Dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if perm := dirInfo.Mode().Perm(); perm != 0o700 {
		t.Fatalf("credentials dir mode %o, want 700", perm)
	}
}

func TestFileStoreClear(t *testing.T) {
	store := FileStore{Dir: t.TempDir()}
	if err := store.SetToken("secret"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after clear, got %v", err)
	}
	// Clearing an empty store is not an error.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileStoreEmptyKey(t *testing.T) {
	store := FileStore{Dir: t.TempDir()}
	if err := os.WriteFile(store.path(), []byte(`{"api_key": ""}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn for empty key, got %v", err)
	}
}

func TestManagerEnvOverride(t *testing.T) {
	store := FileStore{Dir: t.TempDir()}
	if err := store.SetToken("stored-token"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	t.Setenv(TokenEnvVar, "env-token")

	token, source, err := Manager{Store: store}.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "env-token" || source != SourceEnvironment {
		t.Fatalf("got %q from %s, want env-token from environment", token, source)
	}
}

func TestManagerFileSource(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	store := FileStore{Dir: t.TempDir()}
	if err := store.SetToken("stored-token"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	token, source, err := Manager{Store: store}.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "stored-token" || source != SourceFile {
		t.Fatalf("got %q from %s, want stored-token from file", token, source)
	}
}

func TestManagerNotLoggedIn(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	_, source, err := Manager{Store: FileStore{Dir: t.TempDir()}}.Token()
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if source != SourceNone {
		t.Fatalf("unexpected source: %s", source)
	}
}

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"pk_live_abcdef123456": "pk_liv...456",
		"short":                "***",
		"":                     "***",
	}
	for token, want := range cases {
		if got := MaskToken(token); got != want {
			t.Fatalf("MaskToken(%q) = %q, want %q", token, got, want)
		}
	}
}
