package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, rel string, size int) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestBuildManifest(t *testing.T) {
	dir := t.TempDir()
	sizes := map[string]int{
		"index.html":        120,
		"game.wasm":         4096,
		"assets/sprite.png": 333,
		"assets/deep/a.bin": 1,
	}
	for rel, size := range sizes {
		writeFile(t, dir, rel, size)
	}

	entries, total, err := BuildManifest(dir, "builds/gb_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != len(sizes) {
		t.Fatalf("expected %d entries, got %d", len(sizes), len(entries))
	}

	var wantTotal int64
	for _, size := range sizes {
		wantTotal += int64(size)
	}
	if total != wantTotal {
		t.Fatalf("expected total %d, got %d", wantTotal, total)
	}

	seen := map[string]bool{}
	for _, entry := range entries {
		if seen[entry.ObjectKey] {
			t.Fatalf("duplicate key: %s", entry.ObjectKey)
		}
		seen[entry.ObjectKey] = true
		if !strings.HasPrefix(entry.ObjectKey, "builds/gb_1/") {
			t.Fatalf("key missing prefix: %s", entry.ObjectKey)
		}
		if strings.Contains(entry.ObjectKey, "\\") {
			t.Fatalf("key contains backslash: %s", entry.ObjectKey)
		}
		rel := strings.TrimPrefix(entry.ObjectKey, "builds/gb_1/")
		if int64(sizes[rel]) != entry.SizeBytes {
			t.Fatalf("size mismatch for %s: %d", rel, entry.SizeBytes)
		}
	}
	if !seen["builds/gb_1/assets/deep/a.bin"] {
		t.Fatal("nested file missing from manifest")
	}
}

func TestBuildManifestEmptyDir(t *testing.T) {
	entries, total, err := BuildManifest(t.TempDir(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 || total != 0 {
		t.Fatalf("expected empty manifest, got %d entries / %d bytes", len(entries), total)
	}
}

func TestBuildManifestSkipsNonRegular(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "real.txt", 10)
	target := filepath.Join(dir, "real.txt")
	if err := os.Symlink(target, filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	entries, _, err := BuildManifest(dir, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ObjectKey != "real.txt" {
		t.Fatalf("unexpected key: %s", entries[0].ObjectKey)
	}
}

func TestJoinKey(t *testing.T) {
	cases := []struct {
		prefix, rel, want string
	}{
		{"builds/1", "a/b.txt", "builds/1/a/b.txt"},
		{"builds/1/", "/a.txt", "builds/1/a.txt"},
		{"", "a.txt", "a.txt"},
		{"p", "a.txt", "p/a.txt"},
	}
	for _, c := range cases {
		if got := JoinKey(c.prefix, c.rel); got != c.want {
			t.Fatalf("JoinKey(%q, %q) = %q, want %q", c.prefix, c.rel, got, c.want)
		}
	}
}

func TestVerifyDir(t *testing.T) {
	dir := t.TempDir()
	if err := VerifyDir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := VerifyDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
	file := writeFile(t, dir, "f.txt", 1)
	if err := VerifyDir(file); err == nil {
		t.Fatal("expected error for file path")
	}
}
