// Package upload builds the file manifest for a push and streams it
// to object storage with bounded concurrency.
package upload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyManifest means the upload directory held no regular files.
// Callers treat this as fatal rather than uploading nothing.
var ErrEmptyManifest = errors.New("no files found to upload")

// Entry maps one local file to its destination object key.
type Entry struct {
	LocalPath string
	ObjectKey string
	SizeBytes int64
}

// BuildManifest enumerates the regular files under sourceDir (symlinks
// are not followed) and derives forward-slash object keys relative to
// the directory root. Sizes are read once, here; a file changing
// afterwards is the caller's problem.
func BuildManifest(sourceDir, prefix string) ([]Entry, int64, error) {
	root, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve %s: %w", sourceDir, err)
	}

	var entries []Entry
	var total int64

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		entries = append(entries, Entry{
			LocalPath: path,
			ObjectKey: JoinKey(prefix, filepath.ToSlash(rel)),
			SizeBytes: info.Size(),
		})
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// JoinKey joins an object key prefix and a relative key, trimming
// redundant slashes at the seam.
func JoinKey(prefix, rel string) string {
	rel = strings.TrimLeft(rel, "/")
	if prefix == "" {
		return rel
	}
	return strings.TrimRight(prefix, "/") + "/" + rel
}

// VerifyDir fails unless path exists and is a directory.
func VerifyDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("upload directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("upload path is not a directory: %s", path)
	}
	return nil
}
